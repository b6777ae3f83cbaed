package qapoststore_test

import (
	"errors"
	"testing"

	qapoststore "github.com/dalemusser/channelhub/internal/app/store/qaposts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_AskAndAnswer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := qapoststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ch := primitive.NewObjectID()
	q, err := store.Ask(ctx, models.QAPost{ChannelID: ch, AskerID: primitive.NewObjectID(), Question: " What is x? ", Topic: "Algebra"})
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if q.Resolved || len(q.Answers) != 0 || q.Topic != "algebra" {
		t.Errorf("unexpected question %+v", q)
	}

	open, _ := store.CountOpen(ctx, ch)
	if open != 1 {
		t.Errorf("open = %d, want 1", open)
	}

	answered, err := store.Answer(ctx, q.ID, models.Answer{AuthorID: primitive.NewObjectID(), Body: "x = 2"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !answered.Resolved || len(answered.Answers) != 1 || answered.Answers[0].Body != "x = 2" {
		t.Errorf("unexpected answered question %+v", answered)
	}

	open, _ = store.CountOpen(ctx, ch)
	if open != 0 {
		t.Errorf("open = %d, want 0", open)
	}

	if _, err := store.Answer(ctx, primitive.NewObjectID(), models.Answer{Body: "x"}); !errors.Is(err, qapoststore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Answer(ctx, q.ID, models.Answer{Body: "  "}); err == nil {
		t.Error("expected error for blank answer")
	}
}

func TestStore_ListByChannels(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := qapoststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ch := primitive.NewObjectID()
	first, _ := store.Ask(ctx, models.QAPost{ChannelID: ch, Question: "one"})
	second, _ := store.Ask(ctx, models.QAPost{ChannelID: ch, Question: "two"})
	_, _ = store.Ask(ctx, models.QAPost{ChannelID: primitive.NewObjectID(), Question: "elsewhere"})

	got, err := store.ListByChannels(ctx, []primitive.ObjectID{ch})
	if err != nil {
		t.Fatalf("ListByChannels failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != second.ID || got[1].ID != first.ID {
		t.Errorf("unexpected order %v", got)
	}

	none, err := store.ListByChannels(ctx, nil)
	if err != nil || none == nil || len(none) != 0 {
		t.Errorf("ListByChannels(nil) = (%v, %v), want empty non-nil", none, err)
	}
}
