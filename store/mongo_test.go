package store

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTaskDocFieldNames(t *testing.T) {
	assignee := "alice"
	relayedAt := time.Now().UTC().Truncate(time.Millisecond)
	doc := taskDoc{
		ID:          primitive.NewObjectID(),
		Title:       "t",
		Description: "d",
		Progress:    50,
		Status:      TaskStatusActive,
		AssignedTo:  &assignee,
		RelayedAt:   &relayedAt,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	// document fields keep the wire names the dashboard has always used
	for _, field := range []string{"_id", "title", "progress", "status", "assignedTo", "relayedAt", "created_at", "updated_at"} {
		if _, ok := m[field]; !ok {
			t.Errorf("expected stored field %q", field)
		}
	}
	if _, ok := m["AssignedTo"]; ok {
		t.Error("struct field name leaked into the document")
	}
}

func TestTaskDocToTask(t *testing.T) {
	oid := primitive.NewObjectID()
	from := "bob"
	doc := taskDoc{
		ID:          oid,
		Title:       "handoff",
		Description: "d",
		Progress:    100,
		Status:      TaskStatusCompleted,
		RelayedFrom: &from,
	}

	task := doc.toTask()
	if task.ID != oid.Hex() {
		t.Errorf("expected hex id %s, got %s", oid.Hex(), task.ID)
	}
	if task.RelayedFrom == nil || *task.RelayedFrom != "bob" {
		t.Errorf("expected relayedFrom bob, got %v", task.RelayedFrom)
	}
}

func TestObjectIDRejectsMalformedIDs(t *testing.T) {
	for _, id := range []string{"", "nope", "zzzzzzzzzzzzzzzzzzzzzzzz"} {
		if _, err := objectID(id); err != ErrNotFound {
			t.Errorf("id %q: expected ErrNotFound, got %v", id, err)
		}
	}
}
