package videostore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/channelhub/internal/app/system/normalize"
	"github.com/dalemusser/channelhub/internal/app/system/storeerr"
	"github.com/dalemusser/channelhub/internal/app/system/youtube"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Video sources.
const (
	SourceYouTube = "youtube"
	SourceUpload  = "upload"
)

var (
	// ErrNotFound is returned when no video matches.
	ErrNotFound = errors.New("video not found")
	// ErrBadYouTubeURL is returned when a YouTube link has no video id.
	ErrBadYouTubeURL = errors.New("not a recognizable YouTube link")

	errNoTitle = storeerr.Invalid("video title is required")
	errNoURL   = storeerr.Invalid("video url is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("videos")}
}

// Create inserts a video. YouTube links are reduced to their video id and
// stored with the privacy-enhanced embed URL; a link that looks like
// YouTube is treated as YouTube whatever Source says.
func (s *Store) Create(ctx context.Context, v models.Video) (models.Video, error) {
	v.Title = normalize.Name(v.Title)
	if v.Title == "" {
		return models.Video{}, errNoTitle
	}
	v.URL = strings.TrimSpace(v.URL)
	if v.URL == "" {
		return models.Video{}, errNoURL
	}
	if id, ok := youtube.VideoID(v.URL); ok {
		v.Source = SourceYouTube
		v.YouTubeID = id
		v.URL = youtube.EmbedURL(id)
	} else if v.Source == SourceYouTube {
		return models.Video{}, ErrBadYouTubeURL
	} else {
		v.Source = SourceUpload
		v.YouTubeID = ""
	}
	v.ID = primitive.NewObjectID()
	v.TitleCI = text.Fold(v.Title)
	v.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return models.Video{}, err
	}
	return v, nil
}

// GetByID loads a video.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Video, error) {
	var v models.Video
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, err
	}
	return v, nil
}

// ListByChannels returns videos pinned first, then newest first.
func (s *Store) ListByChannels(ctx context.Context, channelIDs []primitive.ObjectID) ([]models.Video, error) {
	if len(channelIDs) == 0 {
		return []models.Video{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"channel_id": bson.M{"$in": channelIDs}},
		options.Find().SetSort(bson.D{
			{Key: "pinned", Value: -1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Video{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetPinned pins or unpins a video.
func (s *Store) SetPinned(ctx context.Context, id primitive.ObjectID, pinned bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"pinned": pinned}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a video. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
