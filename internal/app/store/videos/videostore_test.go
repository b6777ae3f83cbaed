package videostore_test

import (
	"errors"
	"testing"

	videostore "github.com/dalemusser/channelhub/internal/app/store/videos"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_YouTube(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v, err := store.Create(ctx, models.Video{
		ChannelID: primitive.NewObjectID(),
		Title:     "Intro",
		URL:       "https://youtu.be/dQw4w9WgXcQ",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.Source != "youtube" || v.YouTubeID != "dQw4w9WgXcQ" {
		t.Errorf("unexpected video %+v", v)
	}
	if v.URL != "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ" {
		t.Errorf("URL = %q", v.URL)
	}
}

func TestStore_Create_Upload(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	v, err := store.Create(ctx, models.Video{Title: "Lab", URL: "https://cdn.example.com/lab.mp4"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if v.Source != "upload" || v.YouTubeID != "" {
		t.Errorf("unexpected video %+v", v)
	}
}

func TestStore_Create_Rejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tests := []struct {
		name string
		in   models.Video
	}{
		{"no title", models.Video{URL: "https://youtu.be/dQw4w9WgXcQ"}},
		{"no url", models.Video{Title: "x"}},
		{"bad youtube", models.Video{Title: "x", Source: "youtube", URL: "https://example.com/watch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Create(ctx, tt.in); err == nil {
				t.Error("expected an error")
			}
		})
	}
	_, err := store.Create(ctx, models.Video{Title: "x", Source: "youtube", URL: "https://example.com/watch"})
	if !errors.Is(err, videostore.ErrBadYouTubeURL) {
		t.Errorf("expected ErrBadYouTubeURL, got %v", err)
	}
}

func TestStore_ListByChannels_PinnedFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := videostore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ch := primitive.NewObjectID()
	a, _ := store.Create(ctx, models.Video{ChannelID: ch, Title: "a", URL: "https://cdn.example.com/a.mp4"})
	b, _ := store.Create(ctx, models.Video{ChannelID: ch, Title: "b", URL: "https://cdn.example.com/b.mp4"})
	if err := store.SetPinned(ctx, a.ID, true); err != nil {
		t.Fatalf("SetPinned failed: %v", err)
	}

	got, err := store.ListByChannels(ctx, []primitive.ObjectID{ch})
	if err != nil {
		t.Fatalf("ListByChannels failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("unexpected order %v", got)
	}
}
