package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Channel is a teacher's teaching channel.
type Channel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	TeacherID   primitive.ObjectID `bson:"teacher_id" json:"teacher_id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Subject     string             `bson:"subject" json:"subject"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// Membership is a member's subscription to a channel.
// Exactly one document per (channel_id, user_id).
type Membership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID `bson:"channel_id" json:"channel_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Plan      string             `bson:"plan" json:"plan"`     // free | paid
	Status    string             `bson:"status" json:"status"` // active | cancelled
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Post is a channel post (collection channel_posts).
type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID   `bson:"channel_id" json:"channel_id"`
	AuthorID  primitive.ObjectID   `bson:"author_id" json:"author_id"`
	Title     string               `bson:"title" json:"title"`
	Body      string               `bson:"body" json:"body"`
	Category  string               `bson:"category" json:"category"` // lesson | announcement | homework
	Pinned    bool                 `bson:"pinned" json:"pinned"`
	LikedBy   []primitive.ObjectID `bson:"liked_by" json:"-"`
	SavedBy   []primitive.ObjectID `bson:"saved_by" json:"-"`
	Likes     int                  `bson:"likes" json:"likes"`
	Comments  int                  `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

// Comment belongs to a post.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID    primitive.ObjectID `bson:"post_id" json:"post_id"`
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Author    string             `bson:"author" json:"author"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// QAPost is a question asked in a channel, with the teacher's answers
// embedded (collection qa_posts).
type QAPost struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID `bson:"channel_id" json:"channel_id"`
	AskerID   primitive.ObjectID `bson:"asker_id" json:"asker_id"`
	Question  string             `bson:"question" json:"question"`
	Topic     string             `bson:"topic" json:"topic"`
	Answers   []Answer           `bson:"answers" json:"answers"`
	Resolved  bool               `bson:"resolved" json:"resolved"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Answer is one reply to a QAPost.
type Answer struct {
	AuthorID  primitive.ObjectID `bson:"author_id" json:"author_id"`
	Body      string             `bson:"body" json:"body"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Video is an uploaded or YouTube-embedded lesson video.
type Video struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID `bson:"channel_id" json:"channel_id"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"-"`
	Source    string             `bson:"source" json:"source"` // youtube | upload
	URL       string             `bson:"url" json:"url"`
	YouTubeID string             `bson:"youtube_id,omitempty" json:"youtube_id,omitempty"`
	Duration  int                `bson:"duration_sec" json:"duration_sec"`
	Pinned    bool               `bson:"pinned" json:"pinned"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// LessonNote is a markdown note attached to a channel, optionally to a video.
type LessonNote struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ChannelID primitive.ObjectID  `bson:"channel_id" json:"channel_id"`
	VideoID   *primitive.ObjectID `bson:"video_id,omitempty" json:"video_id,omitempty"`
	AuthorID  primitive.ObjectID  `bson:"author_id" json:"author_id"`
	Title     string              `bson:"title" json:"title"`
	Body      string              `bson:"body" json:"body"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}
