package notestore_test

import (
	"errors"
	"testing"

	notestore "github.com/dalemusser/channelhub/internal/app/store/notes"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateListUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ch, video := primitive.NewObjectID(), primitive.NewObjectID()
	n1, err := store.Create(ctx, models.LessonNote{ChannelID: ch, Title: "Week 1", Body: "| a | b |\n|---|---|\n| 1 | 2 |"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	n2, err := store.Create(ctx, models.LessonNote{ChannelID: ch, VideoID: &video, Title: "Week 2", Body: "notes"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	all, err := store.ListByChannels(ctx, []primitive.ObjectID{ch})
	if err != nil {
		t.Fatalf("ListByChannels failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != n2.ID || all[1].ID != n1.ID {
		t.Errorf("unexpected order %v", all)
	}

	byVideo, err := store.ListByVideo(ctx, video)
	if err != nil {
		t.Fatalf("ListByVideo failed: %v", err)
	}
	if len(byVideo) != 1 || byVideo[0].ID != n2.ID {
		t.Errorf("unexpected video notes %v", byVideo)
	}

	if err := store.UpdateContent(ctx, n1.ID, "Week 1 (rev)", "updated"); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}
	got, _ := store.GetByID(ctx, n1.ID)
	if got.Title != "Week 1 (rev)" || got.Body != "updated" {
		t.Errorf("unexpected note %+v", got)
	}
	if err := store.UpdateContent(ctx, primitive.NewObjectID(), "t", "b"); !errors.Is(err, notestore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Create_RequiresTitleAndBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, models.LessonNote{Title: "only title"}); err == nil {
		t.Error("expected error for missing body")
	}
}
