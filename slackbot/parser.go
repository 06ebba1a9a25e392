// Package slackbot turns free-text task requests into structured records and
// posts them to Slack.
package slackbot

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/relai-app/relai-server/log"
)

// ParsedTask is the structured form of a natural-language task request
type ParsedTask struct {
	Recipient        string `json:"recipient"`
	Task             string `json:"task"`
	DueDate          string `json:"due_date"`
	ResponseRequired bool   `json:"response_required"`
	Output           string `json:"output"`
}

// Parser extracts ParsedTask records from free text, using an LLM when an
// API key is configured and a keyword matcher otherwise.
type Parser struct {
	client *openai.Client
	model  string
}

// NewParser builds a Parser. With an empty apiKey the LLM path is disabled
// and every parse uses the fallback matcher.
func NewParser(apiKey, baseURL, model string) *Parser {
	p := &Parser{model: model}
	if apiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not configured, using fallback task parser")
		return p
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" && baseURL != "https://api.openai.com/v1" {
		clientConfig.BaseURL = baseURL
	}
	p.client = openai.NewClientWithConfig(clientConfig)

	log.Info().Str("model", model).Msg("task parser initialized with OpenAI")
	return p
}

// LLMEnabled reports whether the OpenAI path is configured
func (p *Parser) LLMEnabled() bool {
	return p.client != nil
}

// Parse extracts a ParsedTask from raw text. An LLM failure falls back to
// the keyword matcher, so Parse always yields a usable record.
func (p *Parser) Parse(ctx context.Context, rawText string) ParsedTask {
	if p.client != nil {
		parsed, err := p.parseWithLLM(ctx, rawText)
		if err == nil {
			return parsed
		}
		log.Error().Err(err).Msg("LLM parse failed, falling back to keyword parser")
	}
	return parseWithKeywords(rawText)
}

const parsePromptTemplate = `Extract the following fields from this task instruction:
- recipient: The person who should perform the task
- task: The actual task to be performed
- due_date: When the task should be done (in ISO format)
- response_required: Whether a response is needed (true/false)
- output: What output is expected (e.g., summary, confirmation, etc.)

Input: %q

Return only a valid JSON object with these fields.`

func (p *Parser) parseWithLLM(ctx context.Context, rawText string) (ParsedTask, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(parsePromptTemplate, rawText),
		}},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return ParsedTask{}, err
	}
	if len(resp.Choices) == 0 {
		return ParsedTask{}, fmt.Errorf("completion returned no choices")
	}

	fields, err := parseJSONFromLLMResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return ParsedTask{}, err
	}
	return cleanParsedTask(fields, rawText), nil
}

// parseJSONFromLLMResponse tolerates markdown fences and surrounding prose
// around the JSON object
func parseJSONFromLLMResponse(content string) (map[string]any, error) {
	content = strings.TrimSpace(content)

	var result map[string]any
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return result, nil
	}

	codeBlockRe := regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	if matches := codeBlockRe.FindStringSubmatch(content); len(matches) > 1 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[1])), &result); err == nil {
			return result, nil
		}
	}

	jsonObjectRe := regexp.MustCompile(`\{[\s\S]*\}`)
	if match := jsonObjectRe.FindString(content); match != "" {
		if err := json.Unmarshal([]byte(match), &result); err == nil {
			return result, nil
		}
	}

	return nil, fmt.Errorf("unable to parse JSON from LLM response")
}

// cleanParsedTask fills missing fields with defaults and normalizes types
func cleanParsedTask(fields map[string]any, originalText string) ParsedTask {
	parsed := ParsedTask{
		Recipient: "Unknown",
		Task:      originalText,
		DueDate:   tomorrow().Format(time.RFC3339),
		Output:    "confirmation",
	}

	if v, ok := fields["recipient"].(string); ok && strings.TrimSpace(v) != "" {
		parsed.Recipient = strings.TrimSpace(v)
	}
	if v, ok := fields["task"].(string); ok && strings.TrimSpace(v) != "" {
		parsed.Task = strings.TrimSpace(v)
	}
	if v, ok := fields["due_date"].(string); ok {
		if due, err := time.Parse(time.RFC3339, strings.Replace(v, "Z", "+00:00", 1)); err == nil {
			parsed.DueDate = due.Format(time.RFC3339)
		} else if due, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
			parsed.DueDate = due.Format(time.RFC3339)
		} else {
			log.Warn().Str("due_date", v).Msg("invalid due date from LLM, using tomorrow")
		}
	}
	switch v := fields["response_required"].(type) {
	case bool:
		parsed.ResponseRequired = v
	case string:
		parsed.ResponseRequired = strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	if v, ok := fields["output"].(string); ok && strings.TrimSpace(v) != "" {
		parsed.Output = strings.TrimSpace(v)
	}

	return parsed
}

// dateIndicators mark where the task text ends and scheduling words begin
var dateIndicators = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"today", "tomorrow", "next", "yesterday",
}

// parseWithKeywords is the no-LLM fallback: recipient is the word after
// remind/ask/tell, the task is the text before the first date word, and the
// due date comes from a handful of relative-day rules.
func parseWithKeywords(rawText string) ParsedTask {
	textLower := strings.ToLower(rawText)

	recipient := "Unknown"
	words := strings.Fields(rawText)
	for i, word := range words {
		switch strings.ToLower(word) {
		case "remind", "ask", "tell":
			if i+1 < len(words) {
				recipient = words[i+1]
			}
		}
		if recipient != "Unknown" {
			break
		}
	}

	task := strings.TrimSpace(rawText)
	for _, indicator := range dateIndicators {
		if idx := strings.Index(textLower, indicator); idx >= 0 {
			task = strings.TrimSpace(rawText[:idx])
			break
		}
	}
	if task == "" {
		task = strings.TrimSpace(rawText)
	}

	dueDate := keywordDueDate(textLower, time.Now())

	responseRequired := false
	for _, word := range []string{"summarize", "reply", "response", "confirm"} {
		if strings.Contains(textLower, word) {
			responseRequired = true
			break
		}
	}

	output := "confirmation"
	if strings.Contains(textLower, "summarize") {
		output = "summary"
	}

	return ParsedTask{
		Recipient:        recipient,
		Task:             task,
		DueDate:          dueDate.Format(time.RFC3339),
		ResponseRequired: responseRequired,
		Output:           output,
	}
}

// keywordDueDate resolves relative-day words against now. Unrecognized text
// defaults to tomorrow.
func keywordDueDate(textLower string, now time.Time) time.Time {
	next := strings.Contains(textLower, "next")

	switch {
	case strings.Contains(textLower, "yesterday"):
		return now.AddDate(0, 0, -1)
	case strings.Contains(textLower, "today"):
		return now
	case strings.Contains(textLower, "tomorrow"):
		return now.AddDate(0, 0, 1)
	case strings.Contains(textLower, "friday"):
		days := daysUntil(now, time.Friday)
		if next {
			days += 7
		}
		return now.AddDate(0, 0, days)
	case strings.Contains(textLower, "monday"):
		days := daysUntil(now, time.Monday)
		if next {
			days += 7
		}
		return now.AddDate(0, 0, days)
	default:
		return now.AddDate(0, 0, 1)
	}
}

// daysUntil counts days from now to the next occurrence of target; zero when
// today already is the target weekday
func daysUntil(now time.Time, target time.Weekday) int {
	return (int(target) - int(now.Weekday()) + 7) % 7
}

func tomorrow() time.Time {
	return time.Now().AddDate(0, 0, 1)
}
