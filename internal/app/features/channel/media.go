// internal/app/features/channel/media.go
package channel

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	notestore "github.com/dalemusser/channelhub/internal/app/store/notes"
	videostore "github.com/dalemusser/channelhub/internal/app/store/videos"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/contentview"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	videoTabs = []string{tabs.Videos}
	noteTabs  = []string{tabs.Notes}
)

type videoInput struct {
	Title    string `json:"title" validate:"notblank,max=160"`
	URL      string `json:"url" validate:"notblank,max=500"`
	Source   string `json:"source" validate:"omitempty,oneof=youtube upload"`
	Duration int    `json:"duration_sec" validate:"min=0"`
}

// HandleCreateVideo handles POST /api/channel/videos (teachers). YouTube
// links are stored as privacy-enhanced embeds.
func (h *Handler) HandleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var in videoInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	v, err := h.Videos.Create(ctx, models.Video{
		ChannelID: ch.ID,
		Title:     in.Title,
		Source:    in.Source,
		URL:       in.URL,
		Duration:  in.Duration,
	})
	if errors.Is(err, videostore.ErrBadYouTubeURL) {
		apiresp.Invalid(w, map[string]string{"url": "url " + err.Error()})
		return
	}
	if err != nil {
		shared.Fail(w, h.Log, "add video", "Video", err, nil)
		return
	}
	h.changed(r, ch, videoTabs, videoTabs)
	apiresp.Created(w, "Video added.", contentview.NewVideo(v, ch.Name))
}

func (h *Handler) ownVideo(ctx context.Context, w http.ResponseWriter, r *http.Request, ch models.Channel, id primitive.ObjectID) (models.Video, bool) {
	v, err := h.Videos.GetByID(ctx, id)
	if err == nil && v.ChannelID != ch.ID {
		err = videostore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load video", "Video", err, videostore.ErrNotFound)
		return models.Video{}, false
	}
	return v, true
}

// HandlePinVideo handles POST /api/channel/videos/{id}/pin (teachers).
func (h *Handler) HandlePinVideo(w http.ResponseWriter, r *http.Request) {
	var in pinInput
	if !shared.Bind(w, r, &in) {
		return
	}
	id, ok := shared.ObjectID(w, r, "id", "video")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	v, ok := h.ownVideo(ctx, w, r, ch, id)
	if !ok {
		return
	}
	if err := h.Videos.SetPinned(ctx, v.ID, *in.Pinned); err != nil {
		shared.Fail(w, h.Log, "pin video", "Video", err, videostore.ErrNotFound)
		return
	}
	h.changed(r, ch, videoTabs, videoTabs)
	apiresp.Success(w, "Video updated.", map[string]bool{"pinned": *in.Pinned})
}

// HandleDeleteVideo handles DELETE /api/channel/videos/{id} (teachers).
// Notes attached to the video stay in the channel.
func (h *Handler) HandleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectID(w, r, "id", "video")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	v, ok := h.ownVideo(ctx, w, r, ch, id)
	if !ok {
		return
	}
	if _, err := h.Videos.Delete(ctx, v.ID); err != nil {
		shared.Fail(w, h.Log, "delete video", "Video", err, nil)
		return
	}
	h.changed(r, ch, videoTabs, videoTabs)
	apiresp.Success(w, "Video removed.", nil)
}

type noteInput struct {
	Title   string `json:"title" validate:"notblank,max=160"`
	Body    string `json:"body" validate:"notblank,max=20000"`
	VideoID string `json:"video_id" validate:"omitempty,len=24,hexadecimal"`
}

// HandleCreateNote handles POST /api/channel/notes (teachers). A note may
// be attached to one of the channel's videos.
func (h *Handler) HandleCreateNote(w http.ResponseWriter, r *http.Request) {
	var in noteInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	n := models.LessonNote{
		ChannelID: ch.ID,
		AuthorID:  ch.TeacherID,
		Title:     in.Title,
		Body:      in.Body,
	}
	if in.VideoID != "" {
		vid, _ := primitive.ObjectIDFromHex(in.VideoID)
		v, ok := h.ownVideo(ctx, w, r, ch, vid)
		if !ok {
			return
		}
		n.VideoID = &v.ID
	}
	n, err := h.Notes.Create(ctx, n)
	if err != nil {
		shared.Fail(w, h.Log, "create note", "Note", err, nil)
		return
	}
	h.changed(r, ch, noteTabs, noteTabs)
	apiresp.Created(w, "Note saved.", contentview.NewNote(n, ch.Name))
}

func (h *Handler) ownNote(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.LessonNote, models.Channel, bool) {
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return models.LessonNote{}, models.Channel{}, false
	}
	id, ok := shared.ObjectID(w, r, "id", "note")
	if !ok {
		return models.LessonNote{}, models.Channel{}, false
	}
	n, err := h.Notes.GetByID(ctx, id)
	if err == nil && n.ChannelID != ch.ID {
		err = notestore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load note", "Note", err, notestore.ErrNotFound)
		return models.LessonNote{}, models.Channel{}, false
	}
	return n, ch, true
}

// HandleUpdateNote handles PATCH /api/channel/notes/{id} (teachers).
func (h *Handler) HandleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var in noteInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	n, ch, ok := h.ownNote(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Notes.UpdateContent(ctx, n.ID, in.Title, in.Body); err != nil {
		shared.Fail(w, h.Log, "update note", "Note", err, notestore.ErrNotFound)
		return
	}
	h.changed(r, ch, noteTabs, noteTabs)
	apiresp.Success(w, "Note updated.", nil)
}

// HandleDeleteNote handles DELETE /api/channel/notes/{id} (teachers).
func (h *Handler) HandleDeleteNote(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	n, ch, ok := h.ownNote(ctx, w, r)
	if !ok {
		return
	}
	if _, err := h.Notes.Delete(ctx, n.ID); err != nil {
		shared.Fail(w, h.Log, "delete note", "Note", err, nil)
		return
	}
	h.changed(r, ch, noteTabs, noteTabs)
	apiresp.Success(w, "Note deleted.", nil)
}
