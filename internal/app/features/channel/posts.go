// internal/app/features/channel/posts.go
package channel

import (
	"context"
	"net/http"

	"github.com/dalemusser/channelhub/internal/app/features/shared"
	commentstore "github.com/dalemusser/channelhub/internal/app/store/comments"
	poststore "github.com/dalemusser/channelhub/internal/app/store/posts"
	"github.com/dalemusser/channelhub/internal/app/system/apiresp"
	"github.com/dalemusser/channelhub/internal/app/system/authz"
	"github.com/dalemusser/channelhub/internal/app/system/contentview"
	"github.com/dalemusser/channelhub/internal/app/system/tabs"
	"github.com/dalemusser/channelhub/internal/app/system/timeouts"
	"github.com/dalemusser/channelhub/internal/app/system/txn"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"go.uber.org/zap"
)

var (
	postTeacherTabs = []string{tabs.Posts}
	postMemberTabs  = []string{tabs.Feed}
)

type postInput struct {
	Title    string `json:"title" validate:"max=160"`
	Body     string `json:"body" validate:"max=20000"`
	Category string `json:"category" validate:"omitempty,oneof=lesson announcement homework"`
}

type pinInput struct {
	Pinned *bool `json:"pinned" validate:"required"`
}

// loadPost loads the {id} post and checks the caller may read it.
func (h *Handler) loadPost(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Post, reader, bool) {
	id, ok := shared.ObjectID(w, r, "id", "post")
	if !ok {
		return models.Post{}, reader{}, false
	}
	p, err := h.Posts.GetByID(ctx, id)
	if err != nil {
		shared.Fail(w, h.Log, "load post", "Post", err, poststore.ErrNotFound)
		return models.Post{}, reader{}, false
	}
	rd, ok := h.access(ctx, w, r, p.ChannelID)
	if !ok {
		return models.Post{}, reader{}, false
	}
	return p, rd, true
}

// ownPost loads the {id} post for its channel's teacher. Posts in other
// channels are reported as missing.
func (h *Handler) ownPost(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Post, models.Channel, bool) {
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return models.Post{}, models.Channel{}, false
	}
	id, ok := shared.ObjectID(w, r, "id", "post")
	if !ok {
		return models.Post{}, models.Channel{}, false
	}
	p, err := h.Posts.GetByID(ctx, id)
	if err == nil && p.ChannelID != ch.ID {
		err = poststore.ErrNotFound
	}
	if err != nil {
		shared.Fail(w, h.Log, "load post", "Post", err, poststore.ErrNotFound)
		return models.Post{}, models.Channel{}, false
	}
	return p, ch, true
}

// HandleCreatePost handles POST /api/channel/posts (teachers).
func (h *Handler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in postInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ch, ok := h.mine(ctx, w, r)
	if !ok {
		return
	}
	p, err := h.Posts.Create(ctx, models.Post{
		ChannelID: ch.ID,
		AuthorID:  ch.TeacherID,
		Title:     in.Title,
		Body:      in.Body,
		Category:  in.Category,
	})
	if err != nil {
		shared.Fail(w, h.Log, "create post", "Post", err, nil)
		return
	}
	h.changed(r, ch, postTeacherTabs, postMemberTabs)
	apiresp.Created(w, "Post published.", contentview.NewPost(p, ch.Name, ch.TeacherID))
}

// HandleUpdatePost handles PATCH /api/channel/posts/{id} (teachers).
func (h *Handler) HandleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var in postInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, ch, ok := h.ownPost(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Posts.UpdateContent(ctx, p.ID, poststore.Update{
		Title:    in.Title,
		Body:     in.Body,
		Category: in.Category,
	}); err != nil {
		shared.Fail(w, h.Log, "update post", "Post", err, poststore.ErrNotFound)
		return
	}
	h.changed(r, ch, postTeacherTabs, postMemberTabs)
	apiresp.Success(w, "Post updated.", nil)
}

// HandlePinPost handles POST /api/channel/posts/{id}/pin (teachers). Pinned
// posts sort ahead of the rest.
func (h *Handler) HandlePinPost(w http.ResponseWriter, r *http.Request) {
	var in pinInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, ch, ok := h.ownPost(ctx, w, r)
	if !ok {
		return
	}
	if err := h.Posts.SetPinned(ctx, p.ID, *in.Pinned); err != nil {
		shared.Fail(w, h.Log, "pin post", "Post", err, poststore.ErrNotFound)
		return
	}
	h.changed(r, ch, postTeacherTabs, postMemberTabs)
	msg := "Post unpinned."
	if *in.Pinned {
		msg = "Post pinned."
	}
	apiresp.Success(w, msg, map[string]bool{"pinned": *in.Pinned})
}

// HandleDeletePost handles DELETE /api/channel/posts/{id} (teachers). The
// post's comments go with it.
func (h *Handler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	p, ch, ok := h.ownPost(ctx, w, r)
	if !ok {
		return
	}
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		if _, err := h.Comments.DeleteByPost(ctx, p.ID); err != nil {
			return err
		}
		_, err := h.Posts.Delete(ctx, p.ID)
		return err
	})
	if err != nil {
		shared.Fail(w, h.Log, "delete post", "Post", err, nil)
		return
	}
	h.changed(r, ch, postTeacherTabs, postMemberTabs)
	apiresp.Success(w, "Post deleted.", nil)
}

type postDetail struct {
	Post     contentview.Post      `json:"post"`
	Comments []contentview.Comment `json:"comments"`
}

// ServePost handles GET /api/channel/posts/{id}: the post with its
// comments, for the teacher or a subscriber.
func (h *Handler) ServePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, rd, ok := h.loadPost(ctx, w, r)
	if !ok {
		return
	}
	cs, err := h.Comments.ListByPost(ctx, p.ID)
	if err != nil {
		shared.Fail(w, h.Log, "list comments", "Post", err, nil)
		return
	}
	out := postDetail{
		Post:     contentview.NewPost(p, rd.channel.Name, rd.userID),
		Comments: make([]contentview.Comment, 0, len(cs)),
	}
	for _, c := range cs {
		out.Comments = append(out.Comments, contentview.NewComment(c))
	}
	apiresp.OK(w, out)
}

// HandleLike handles POST /api/channel/posts/{id}/like (members).
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, rd, ok := h.loadPost(ctx, w, r)
	if !ok {
		return
	}
	liked, likes, err := h.Posts.ToggleLike(ctx, p.ID, rd.userID)
	if err != nil {
		shared.Fail(w, h.Log, "toggle like", "Post", err, poststore.ErrNotFound)
		return
	}
	h.changed(r, rd.channel, postTeacherTabs, nil)
	h.Tabs.Invalidate(r.Context(), rd.userID.Hex(), tabs.MemberChannel, tabs.Feed)
	apiresp.OK(w, map[string]any{"liked": liked, "likes": likes})
}

// HandleSave handles POST /api/channel/posts/{id}/save (members).
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	p, rd, ok := h.loadPost(ctx, w, r)
	if !ok {
		return
	}
	saved, err := h.Posts.ToggleSave(ctx, p.ID, rd.userID)
	if err != nil {
		shared.Fail(w, h.Log, "toggle save", "Post", err, poststore.ErrNotFound)
		return
	}
	h.Tabs.Invalidate(r.Context(), rd.userID.Hex(), tabs.MemberChannel, tabs.Feed)
	msg := "Removed from saved posts."
	if saved {
		msg = "Saved for later."
	}
	apiresp.Success(w, msg, map[string]bool{"saved": saved})
}

type commentInput struct {
	Body string `json:"body" validate:"notblank,max=2000"`
}

// HandleComment handles POST /api/channel/posts/{id}/comments.
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	var in commentInput
	if !shared.Bind(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	p, rd, ok := h.loadPost(ctx, w, r)
	if !ok {
		return
	}
	_, name, _, _ := authz.UserCtx(r)
	var c models.Comment
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		var err error
		c, err = h.Comments.Create(ctx, models.Comment{
			PostID:   p.ID,
			AuthorID: rd.userID,
			Author:   name,
			Body:     in.Body,
		})
		if err != nil {
			return err
		}
		return h.Posts.AddComments(ctx, p.ID, 1)
	})
	if err != nil {
		shared.Fail(w, h.Log, "add comment", "Post", err, poststore.ErrNotFound)
		return
	}
	h.changed(r, rd.channel, postTeacherTabs, postMemberTabs)
	apiresp.Created(w, "Comment added.", contentview.NewComment(c))
}

// HandleDeleteComment handles DELETE /api/channel/comments/{id}. Authors
// remove their own comments; the channel's teacher may remove any.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.ObjectID(w, r, "id", "comment")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	c, err := h.Comments.GetByID(ctx, id)
	if err != nil {
		shared.Fail(w, h.Log, "load comment", "Comment", err, commentstore.ErrNotFound)
		return
	}
	p, err := h.Posts.GetByID(ctx, c.PostID)
	if err != nil {
		shared.Fail(w, h.Log, "load post", "Post", err, poststore.ErrNotFound)
		return
	}
	rd, ok := h.access(ctx, w, r, p.ChannelID)
	if !ok {
		return
	}
	if !rd.owner && c.AuthorID != rd.userID {
		apiresp.Error(w, http.StatusForbidden, "You can only remove your own comments.")
		return
	}
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		n, err := h.Comments.Delete(ctx, c.ID)
		if err != nil || n == 0 {
			return err
		}
		return h.Posts.AddComments(ctx, p.ID, -1)
	})
	if err != nil {
		shared.Fail(w, h.Log, "delete comment", "Comment", err, nil)
		return
	}
	h.Log.Info("comment removed",
		zap.String("comment_id", c.ID.Hex()),
		zap.String("by", rd.userID.Hex()),
		zap.Bool("moderated", c.AuthorID != rd.userID))
	h.changed(r, rd.channel, postTeacherTabs, postMemberTabs)
	apiresp.Success(w, "Comment removed.", nil)
}
