// internal/app/features/channel/qa.go
package channel

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	qapoststore "github.com/dalemusser/channelhub/internal/app/store/qaposts"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/contentview"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/domain/models"
)

var qaTabs = []string{tabs.QA}

type askInput struct {
	Question string `json:"question" validate:"notblank,max=4000"`
	Topic    string `json:"topic" validate:"max=40"`
}

// HandleAsk handles POST /api/channel/channels/{id}/qa (subscribed members).
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var in askInput
	if !shared.Bind(w, r, &in) {
		return
	}
	channelID, ok := shared.ObjectID(w, r, "id", "channel")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	rd, ok := h.access(ctx, w, r, channelID)
	if !ok {
		return
	}
	q, err := h.QA.Ask(ctx, models.QAPost{
		ChannelID: rd.channel.ID,
		AskerID:   rd.userID,
		Question:  in.Question,
		Topic:     in.Topic,
	})
	if err != nil {
		shared.Fail(w, h.Log, "ask question", "Question", err, nil)
		return
	}
	h.changed(r, rd.channel, qaTabs, qaTabs)
	apiresp.Created(w, "Question sent to the teacher.", contentview.NewQA(q, rd.channel.Name))
}

// ownQuestion loads the {id} question for its channel's teacher.
func (h *Handler) ownQuestion(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.QAPost, models.Channel, bool) {
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return models.QAPost{}, models.Channel{}, false
	}
	id, ok := shared.ObjectID(w, r, "id", "question")
	if !ok {
		return models.QAPost{}, models.Channel{}, false
	}
	q, err := h.QA.GetByID(ctx, id)
	if err == nil && q.ChannelID != ch.ID {
		err = qapoststore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load question", "Question", err, qapoststore.ErrNotFound)
		return models.QAPost{}, models.Channel{}, false
	}
	return q, ch, true
}

type answerInput struct {
	Body string `json:"body" validate:"notblank,max=8000"`
}

// HandleAnswer handles POST /api/channel/qa/{id}/answer (teachers).
// Answering marks the question resolved.
func (h *Handler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var in answerInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	q, ch, ok := h.ownQuestion(ctx, w, r)
	if !ok {
		return
	}
	q, err := h.QA.Answer(ctx, q.ID, models.Answer{AuthorID: ch.TeacherID, Body: in.Body})
	if err != nil {
		shared.Fail(w, h.Log, "answer question", "Question", err, qapoststore.ErrNotFound)
		return
	}
	h.changed(r, ch, qaTabs, qaTabs)
	apiresp.Success(w, "Answer posted.", contentview.NewQA(q, ch.Name))
}

type resolveInput struct {
	Resolved *bool `json:"resolved" validate:"required"`
}

// HandleResolve handles POST /api/channel/qa/{id}/resolve (teachers).
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var in resolveInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	q, ch, ok := h.ownQuestion(ctx, w, r)
	if !ok {
		return
	}
	if err := h.QA.SetResolved(ctx, q.ID, *in.Resolved); err != nil {
		shared.Fail(w, h.Log, "resolve question", "Question", err, qapoststore.ErrNotFound)
		return
	}
	h.changed(r, ch, qaTabs, qaTabs)
	apiresp.Success(w, "Question updated.", map[string]bool{"resolved": *in.Resolved})
}

// HandleDeleteQuestion handles DELETE /api/channel/qa/{id}. The asker or
// the channel's teacher may remove a question.
func (h *Handler) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectID(w, r, "id", "question")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	q, err := h.QA.GetByID(ctx, id)
	if err != nil {
		shared.Fail(w, h.Log, "load question", "Question", err, qapoststore.ErrNotFound)
		return
	}
	rd, ok := h.access(ctx, w, r, q.ChannelID)
	if !ok {
		return
	}
	if !rd.owner && q.AskerID != rd.userID {
		apiresp.Error(w, http.StatusForbidden, "You can only remove your own questions.")
		return
	}
	if _, err := h.QA.Delete(ctx, q.ID); err != nil {
		shared.Fail(w, h.Log, "delete question", "Question", err, nil)
		return
	}
	h.changed(r, rd.channel, qaTabs, qaTabs)
	apiresp.Success(w, "Question removed.", nil)
}
