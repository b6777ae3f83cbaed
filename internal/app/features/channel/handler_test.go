package channel_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/channelhub/internal/app/features/channel"
	commentstore "github.com/dalemusser/channelhub/internal/app/store/comments"
	poststore "github.com/dalemusser/channelhub/internal/app/store/posts"
	"github.com/dalemusser/channelhub/internal/domain/models"
	"github.com/dalemusser/channelhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func call(fn http.HandlerFunc, method string, user testutil.TestUser, body any, id primitive.ObjectID) *httptest.ResponseRecorder {
	req := testutil.WithUser(testutil.NewJSONRequest(method, "/api/channel", body), user)
	if !id.IsZero() {
		req = testutil.WithChiURLParams(req, "id", id.Hex())
	}
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

type world struct {
	h        *channel.Handler
	inv      *testutil.Invalidations
	ch       models.Channel
	teacher  testutil.TestUser
	member   testutil.TestUser
	memberID primitive.ObjectID
	fx       *testutil.Fixtures
}

func setup(t *testing.T) world {
	t.Helper()
	db := testutil.SetupTestDBWithIndexes(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tu := fx.CreateUser(ctx, "mensah", models.RoleTeacher, "password1")
	mu := fx.CreateUser(ctx, "esi", models.RoleMember, "password1")
	ch := fx.CreateChannel(ctx, tu.ID, "Form 2 Maths")
	fx.Subscribe(ctx, ch.ID, mu.ID)

	inv := &testutil.Invalidations{}
	return world{
		h:        channel.NewHandler(db, inv, zap.NewNop()),
		inv:      inv,
		ch:       ch,
		teacher:  testutil.TeacherUser(tu.ID),
		member:   testutil.MemberUser(mu.ID),
		memberID: mu.ID,
		fx:       fx,
	}
}

func TestCreatePost_ClassifiesAndRefreshesSubscribers(t *testing.T) {
	w := setup(t)

	rec := call(w.h.HandleCreatePost, http.MethodPost, w.teacher, map[string]string{
		"title": "Fractions",
		"body":  "Simplify $\\frac{2}{4}$ before adding.",
	}, primitive.NilObjectID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	env := testutil.DecodeEnvelope(t, rec)
	var got struct {
		Kind     string `json:"kind"`
		HTML     string `json:"html"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != "math" {
		t.Errorf("kind = %q, want math", got.Kind)
	}
	if got.HTML == "" {
		t.Error("html is empty")
	}
	if got.Category != "lesson" {
		t.Errorf("category = %q, want lesson", got.Category)
	}
	if !w.inv.Has(w.teacher.ID + " teacher:posts") {
		t.Errorf("teacher posts not invalidated: %v", w.inv.Calls())
	}
	if !w.inv.Has(w.member.ID + " member:feed") {
		t.Errorf("subscriber feed not invalidated: %v", w.inv.Calls())
	}
}

func TestCreatePost_EmptyRejected(t *testing.T) {
	w := setup(t)
	rec := call(w.h.HandleCreatePost, http.MethodPost, w.teacher, map[string]string{"title": " ", "body": ""}, primitive.NilObjectID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreatePost_NoChannel(t *testing.T) {
	w := setup(t)
	stranger := testutil.TeacherUser(primitive.NewObjectID())
	rec := call(w.h.HandleCreatePost, http.MethodPost, stranger, map[string]string{"title": "Hi"}, primitive.NilObjectID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUpdatePost_OtherTeachersPostIsMissing(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	other := w.fx.CreateUser(ctx, "owusu", models.RoleTeacher, "password1")
	otherCh := w.fx.CreateChannel(ctx, other.ID, "Physics")
	p := w.fx.CreatePost(ctx, otherCh.ID, other.ID, "Motion", false, time.Now().UTC())

	rec := call(w.h.HandleUpdatePost, http.MethodPatch, w.teacher, map[string]string{"title": "Mine now"}, p.ID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLikeAndSave_Toggle(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := w.fx.CreatePost(ctx, w.ch.ID, w.ch.TeacherID, "Week 1", false, time.Now().UTC())

	for i, want := range []bool{true, false} {
		rec := call(w.h.HandleLike, http.MethodPost, w.member, nil, p.ID)
		if rec.Code != http.StatusOK {
			t.Fatalf("like %d: status = %d body %s", i, rec.Code, rec.Body.String())
		}
		var got struct {
			Liked bool `json:"liked"`
			Likes int  `json:"likes"`
		}
		_ = json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &got)
		if got.Liked != want {
			t.Errorf("like %d: liked = %v, want %v", i, got.Liked, want)
		}
	}

	rec := call(w.h.HandleSave, http.MethodPost, w.member, nil, p.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status = %d", rec.Code)
	}
	saved, _ := poststore.New(w.fx.DB()).ListSaved(ctx, w.memberID)
	if len(saved) != 1 {
		t.Errorf("saved posts = %d, want 1", len(saved))
	}
}

func TestLike_RequiresSubscription(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := w.fx.CreatePost(ctx, w.ch.ID, w.ch.TeacherID, "Week 1", false, time.Now().UTC())

	outsider := testutil.MemberUser(primitive.NewObjectID())
	rec := call(w.h.HandleLike, http.MethodPost, outsider, nil, p.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestComments_CountFollowsAddAndDelete(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := w.fx.CreatePost(ctx, w.ch.ID, w.ch.TeacherID, "Week 1", false, time.Now().UTC())
	posts := poststore.New(w.fx.DB())

	rec := call(w.h.HandleComment, http.MethodPost, w.member, map[string]string{"body": "Thanks <b>sir</b>"}, p.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: status = %d body %s", rec.Code, rec.Body.String())
	}
	got, _ := posts.GetByID(ctx, p.ID)
	if got.Comments != 1 {
		t.Fatalf("comments = %d, want 1", got.Comments)
	}
	cs, _ := commentstore.New(w.fx.DB()).ListByPost(ctx, p.ID)
	if len(cs) != 1 {
		t.Fatalf("stored comments = %d, want 1", len(cs))
	}

	// Another member cannot remove it; the teacher can.
	ctx2, cancel2 := testutil.TestContext()
	defer cancel2()
	other := w.fx.CreateUser(ctx2, "kojo", models.RoleMember, "password1")
	w.fx.Subscribe(ctx2, w.ch.ID, other.ID)
	if rec := call(w.h.HandleDeleteComment, http.MethodDelete, testutil.MemberUser(other.ID), nil, cs[0].ID); rec.Code != http.StatusForbidden {
		t.Errorf("other member delete: status = %d, want 403", rec.Code)
	}
	if rec := call(w.h.HandleDeleteComment, http.MethodDelete, w.teacher, nil, cs[0].ID); rec.Code != http.StatusOK {
		t.Fatalf("teacher delete: status = %d body %s", rec.Code, rec.Body.String())
	}
	got, _ = posts.GetByID(ctx, p.ID)
	if got.Comments != 0 {
		t.Errorf("comments after delete = %d, want 0", got.Comments)
	}
}

func TestDeletePost_RemovesComments(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := w.fx.CreatePost(ctx, w.ch.ID, w.ch.TeacherID, "Week 1", false, time.Now().UTC())
	call(w.h.HandleComment, http.MethodPost, w.member, map[string]string{"body": "first"}, p.ID)

	rec := call(w.h.HandleDeletePost, http.MethodDelete, w.teacher, nil, p.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	cs, _ := commentstore.New(w.fx.DB()).ListByPost(ctx, p.ID)
	if len(cs) != 0 {
		t.Errorf("comments left = %d, want 0", len(cs))
	}
}

func TestQA_AskAnswer(t *testing.T) {
	w := setup(t)

	rec := call(w.h.HandleAsk, http.MethodPost, w.member, map[string]string{"question": "Why is 0! = 1?"}, w.ch.ID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("ask: status = %d body %s", rec.Code, rec.Body.String())
	}
	var asked struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &asked)
	qid, _ := primitive.ObjectIDFromHex(asked.ID)

	rec = call(w.h.HandleAnswer, http.MethodPost, w.teacher, map[string]string{"body": "By convention: the empty product."}, qid)
	if rec.Code != http.StatusOK {
		t.Fatalf("answer: status = %d body %s", rec.Code, rec.Body.String())
	}
	var answered struct {
		Resolved bool `json:"resolved"`
		Rendered []struct {
			HTML string `json:"html"`
		} `json:"rendered_answers"`
	}
	_ = json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &answered)
	if !answered.Resolved || len(answered.Rendered) != 1 {
		t.Errorf("answered = %+v", answered)
	}
	if !w.inv.Has(w.member.ID + " member:qa") {
		t.Errorf("member qa not invalidated: %v", w.inv.Calls())
	}
}

func TestQA_AskRequiresSubscription(t *testing.T) {
	w := setup(t)
	outsider := testutil.MemberUser(primitive.NewObjectID())
	rec := call(w.h.HandleAsk, http.MethodPost, outsider, map[string]string{"question": "Hello?"}, w.ch.ID)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestCreateVideo(t *testing.T) {
	w := setup(t)

	rec := call(w.h.HandleCreateVideo, http.MethodPost, w.teacher, map[string]string{
		"title": "Long division",
		"url":   "https://youtu.be/dQw4w9WgXcQ",
	}, primitive.NilObjectID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var v struct {
		Source   string `json:"source"`
		EmbedURL string `json:"embed_url"`
	}
	_ = json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &v)
	if v.Source != "youtube" || v.EmbedURL != "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ" {
		t.Errorf("video = %+v", v)
	}

	rec = call(w.h.HandleCreateVideo, http.MethodPost, w.teacher, map[string]string{
		"title":  "Broken",
		"url":    "https://example.com/watch",
		"source": "youtube",
	}, primitive.NilObjectID)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad link: status = %d, want 400", rec.Code)
	}
	if _, ok := testutil.DecodeEnvelope(t, rec).Fields["url"]; !ok {
		t.Error("missing url field error")
	}
}

func TestCreateNote_VideoMustBeOwn(t *testing.T) {
	w := setup(t)
	rec := call(w.h.HandleCreateNote, http.MethodPost, w.teacher, map[string]string{
		"title":    "Summary",
		"body":     "| a | b |\n|---|---|\n| 1 | 2 |",
		"video_id": primitive.NewObjectID().Hex(),
	}, primitive.NilObjectID)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = call(w.h.HandleCreateNote, http.MethodPost, w.teacher, map[string]string{
		"title": "Summary",
		"body":  "| a | b |\n|---|---|\n| 1 | 2 |",
	}, primitive.NilObjectID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	var n struct {
		Kind string `json:"kind"`
	}
	_ = json.Unmarshal(testutil.DecodeEnvelope(t, rec).Data, &n)
	if n.Kind != "table" {
		t.Errorf("kind = %q, want table", n.Kind)
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	w := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := w.fx.CreateUser(ctx, "abena", models.RoleMember, "password1")
	m := testutil.MemberUser(u.ID)

	if rec := call(w.h.HandleSubscribe, http.MethodPost, m, nil, w.ch.ID); rec.Code != http.StatusOK {
		t.Fatalf("subscribe: status = %d body %s", rec.Code, rec.Body.String())
	}
	if rec := call(w.h.HandleSubscribe, http.MethodPost, m, map[string]string{"plan": "paid"}, w.ch.ID); rec.Code != http.StatusOK {
		t.Fatalf("resubscribe: status = %d body %s", rec.Code, rec.Body.String())
	}
	if !w.inv.Has(m.ID + " member:feed,qa,videos,notes,subscriptions") {
		t.Errorf("member tabs not invalidated: %v", w.inv.Calls())
	}
	if !w.inv.Has(w.teacher.ID + " teacher:subscribers") {
		t.Errorf("teacher subscribers not invalidated: %v", w.inv.Calls())
	}

	if rec := call(w.h.HandleUnsubscribe, http.MethodDelete, m, nil, w.ch.ID); rec.Code != http.StatusOK {
		t.Fatalf("unsubscribe: status = %d", rec.Code)
	}
	if rec := call(w.h.HandleUnsubscribe, http.MethodDelete, m, nil, w.ch.ID); rec.Code != http.StatusNotFound {
		t.Errorf("second unsubscribe: status = %d, want 404", rec.Code)
	}
}

func TestCreateChannel_OnePerTeacher(t *testing.T) {
	w := setup(t)
	rec := call(w.h.HandleCreate, http.MethodPost, w.teacher, map[string]string{"name": "Second"}, primitive.NilObjectID)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
