package slackbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/relai-app/relai-server/log"
)

// Notifier posts parsed tasks to a Slack channel, mentioning the recipient
// when the workspace directory has a matching user.
type Notifier struct {
	client   *slack.Client
	channel  string
	botToken string
	appToken string
}

// NewNotifier builds a Notifier. Tokens are validated lazily so the server
// can start without Slack configured.
func NewNotifier(botToken, appToken, channel string) *Notifier {
	n := &Notifier{
		channel:  channel,
		botToken: botToken,
		appToken: appToken,
	}
	if n.Configured() {
		n.client = slack.New(botToken)
		log.Info().Str("channel", channel).Msg("Slack notifier initialized")
	} else {
		log.Warn().Msg("Slack tokens not configured, task posting disabled")
	}
	return n
}

// Configured reports whether both tokens are present with the expected
// prefixes (xoxb- bot token, xapp- app-level token)
func (n *Notifier) Configured() bool {
	return strings.HasPrefix(n.botToken, "xoxb-") && strings.HasPrefix(n.appToken, "xapp-")
}

// BotConfigured reports whether a bot token is present
func (n *Notifier) BotConfigured() bool {
	return n.botToken != ""
}

// AppConfigured reports whether an app-level token is present
func (n *Notifier) AppConfigured() bool {
	return n.appToken != ""
}

// Channel returns the default channel tasks are posted to
func (n *Notifier) Channel() string {
	return n.channel
}

// TestConnection verifies the bot token against auth.test
func (n *Notifier) TestConnection(ctx context.Context) error {
	if n.client == nil {
		return fmt.Errorf("slack tokens not configured")
	}

	resp, err := n.client.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("slack auth test failed: %w", err)
	}

	log.Info().
		Str("team", resp.Team).
		Str("user", resp.User).
		Str("botId", resp.BotID).
		Msg("Slack connection verified")
	return nil
}

// FindUserByName looks up a workspace member by display name, real name, or
// the first word of either. Returns nil when nobody matches.
func (n *Notifier) FindUserByName(ctx context.Context, name string) (*slack.User, error) {
	if n.client == nil {
		return nil, fmt.Errorf("slack tokens not configured")
	}

	users, err := n.client.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing slack users: %w", err)
	}

	nameLower := strings.ToLower(name)
	for i := range users {
		u := &users[i]
		if u.IsBot || u.Deleted {
			continue
		}

		display := u.Profile.DisplayName
		real := u.Profile.RealName

		if strings.ToLower(display) == nameLower || strings.ToLower(real) == nameLower {
			return u, nil
		}
		if firstWord(real) == nameLower || firstWord(display) == nameLower {
			return u, nil
		}
	}

	return nil, nil
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// SendTask posts a formatted task message to the default channel. The
// recipient is mentioned by id when found, by plain @name otherwise.
func (n *Notifier) SendTask(ctx context.Context, task ParsedTask) error {
	if n.client == nil {
		return fmt.Errorf("slack tokens not configured")
	}

	mention := "@" + task.Recipient
	user, err := n.FindUserByName(ctx, task.Recipient)
	if err != nil {
		log.Warn().Err(err).Str("recipient", task.Recipient).Msg("slack user lookup failed")
	} else if user != nil {
		mention = fmt.Sprintf("<@%s>", user.ID)
	} else {
		log.Warn().Str("recipient", task.Recipient).Msg("recipient not found in slack workspace")
	}

	message := FormatTaskMessage(task, mention)

	_, ts, err := n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(message, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}

	log.Info().
		Str("channel", n.channel).
		Str("ts", ts).
		Str("recipient", task.Recipient).
		Msg("task posted to Slack")
	return nil
}

// FormatTaskMessage renders the Slack message body for a parsed task
func FormatTaskMessage(task ParsedTask, mention string) string {
	var b strings.Builder
	b.WriteString("🤖 *RelAI Task*\n\n")
	fmt.Fprintf(&b, "*Recipient:* %s\n", mention)
	fmt.Fprintf(&b, "*Task:* %s\n", task.Task)
	fmt.Fprintf(&b, "*Due Date:* %s\n", task.DueDate)
	if task.ResponseRequired {
		b.WriteString("*Response Required:* Yes\n")
		fmt.Fprintf(&b, "*Output Format:* %s\n", task.Output)
	} else {
		b.WriteString("*Response Required:* No\n")
	}
	return b.String()
}
