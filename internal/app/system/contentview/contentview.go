// Package contentview turns channel records into the shapes the client
// renders: every user-authored body is classified and converted to
// sanitized HTML once, on the server.
package contentview

import (
	"html/template"

	"github.com/dalemusser/channelhub/internal/app/system/contentkind"
	"github.com/dalemusser/channelhub/internal/app/system/render"
	"github.com/dalemusser/channelhub/internal/app/system/youtube"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a channel post as seen by one viewer.
type Post struct {
	models.Post
	Channel string           `json:"channel,omitempty"`
	Kind    contentkind.Kind `json:"kind"`
	HTML    template.HTML    `json:"html"`
	Liked   bool             `json:"liked"`
	Saved   bool             `json:"saved"`
}

// NewPost builds the view of p for viewer.
func NewPost(p models.Post, channel string, viewer primitive.ObjectID) Post {
	return Post{
		Post:    p,
		Channel: channel,
		Kind:    contentkind.Classify(p.Body),
		HTML:    render.Markdown(p.Body),
		Liked:   contains(p.LikedBy, viewer),
		Saved:   contains(p.SavedBy, viewer),
	}
}

// Answer is one rendered reply.
type Answer struct {
	models.Answer
	Kind contentkind.Kind `json:"kind"`
	HTML template.HTML    `json:"html"`
}

// QA is a question with its rendered answers.
type QA struct {
	models.QAPost
	Channel  string           `json:"channel,omitempty"`
	Kind     contentkind.Kind `json:"kind"`
	HTML     template.HTML    `json:"html"`
	Rendered []Answer         `json:"rendered_answers"`
}

// NewQA builds the view of q.
func NewQA(q models.QAPost, channel string) QA {
	v := QA{
		QAPost:   q,
		Channel:  channel,
		Kind:     contentkind.Classify(q.Question),
		HTML:     render.Markdown(q.Question),
		Rendered: make([]Answer, 0, len(q.Answers)),
	}
	for _, a := range q.Answers {
		v.Rendered = append(v.Rendered, Answer{
			Answer: a,
			Kind:   contentkind.Classify(a.Body),
			HTML:   render.Markdown(a.Body),
		})
	}
	return v
}

// Video adds the player and thumbnail URLs.
type Video struct {
	models.Video
	Channel   string `json:"channel,omitempty"`
	EmbedURL  string `json:"embed_url,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// NewVideo builds the view of v.
func NewVideo(v models.Video, channel string) Video {
	out := Video{Video: v, Channel: channel}
	if v.YouTubeID != "" {
		out.EmbedURL = youtube.EmbedURL(v.YouTubeID)
		out.Thumbnail = youtube.ThumbnailURL(v.YouTubeID)
	}
	return out
}

// Note is a rendered lesson note.
type Note struct {
	models.LessonNote
	Channel string           `json:"channel,omitempty"`
	Kind    contentkind.Kind `json:"kind"`
	HTML    template.HTML    `json:"html"`
}

// NewNote builds the view of n.
func NewNote(n models.LessonNote, channel string) Note {
	return Note{
		LessonNote: n,
		Channel:    channel,
		Kind:       contentkind.Classify(n.Body),
		HTML:       render.Markdown(n.Body),
	}
}

// Comment is a rendered comment. Comments are short and rendered as plain
// text, never markdown.
type Comment struct {
	models.Comment
	HTML template.HTML `json:"html"`
}

// NewComment builds the view of c.
func NewComment(c models.Comment) Comment {
	return Comment{Comment: c, HTML: template.HTML(render.PlainTextToHTML(c.Body))}
}

func contains(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	if id.IsZero() {
		return false
	}
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
