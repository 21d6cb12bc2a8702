package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"examcell_backend/internal/model"
	"examcell_backend/internal/qbank"
	"examcell_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstQuestion(v *SessionView) *qbank.Question {
	return v.Tree.Modules()[0].Categories[0].Questions[0]
}

func TestSessionBuildAndSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.faculty()

	view := env.svc.OpenSession(actor, env.fx.selection())
	require.NotEmpty(t, view.ID)
	id := view.ID

	view, err := env.svc.InitModules(id, actor, "1")
	require.NoError(t, err)
	moduleID := view.Tree.Modules()[0].ID

	view, err = env.svc.AddCategories(id, actor, moduleID, 1)
	require.NoError(t, err)
	catID := view.Tree.Modules()[0].Categories[0].ID

	_, err = env.svc.SetCategoryField(id, actor, moduleID, catID, "marks", "5")
	require.NoError(t, err)
	_, err = env.svc.SetCategoryField(id, actor, moduleID, catID, "numberOfQuestions", "2")
	require.NoError(t, err)
	view, err = env.svc.ConfirmCategory(id, actor, moduleID, catID)
	require.NoError(t, err)
	assert.True(t, view.Changed)
	assert.Equal(t, 2, view.Stats.Questions)

	q := firstQuestion(view)
	view, err = env.svc.DeleteQuestion(id, actor, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Stats.Questions)

	err = env.svc.Validate(id, actor)
	var incomplete *qbank.IncompleteSectionError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, 2, incomplete.Required)
	assert.Equal(t, 1, incomplete.Found)

	_, err = env.svc.Submit(ctx, id, actor)
	require.True(t, errors.As(err, &incomplete))

	_, err = env.svc.AddQuestion(id, actor, catID)
	require.NoError(t, err)
	require.NoError(t, env.svc.Validate(id, actor))

	qb, err := env.svc.Submit(ctx, id, actor)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewPending, qb.ReviewStatus)
	assert.Equal(t, env.fx.faculty.ID, qb.FacultyID)
	require.NotNil(t, qb.CourseOfferingID)
	assert.Equal(t, env.fx.offering.ID, *qb.CourseOfferingID)

	stored, err := env.bankRepo.FindByID(qb.ID)
	require.NoError(t, err)
	tree := qbank.NewTree()
	require.NoError(t, json.Unmarshal(stored.Tree, tree))
	assert.Equal(t, 2, tree.Stats().Questions)

	_, err = env.svc.GetSession(id, actor)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.Contains(t, env.events.types(), EventSessionClosed)
}

func TestSubmitEmptyTree(t *testing.T) {
	env := newTestEnv(t)
	view := env.svc.OpenSession(env.faculty(), env.fx.selection())

	_, err := env.svc.Submit(context.Background(), view.ID, env.faculty())
	var vErr *qbank.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "no modules", vErr.Message)
}

func TestSubmitRequiresSelection(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	view := env.svc.OpenSession(actor, qbank.Selection{})
	_, err := env.svc.InitModules(view.ID, actor, "1")
	require.NoError(t, err)

	_, err = env.svc.Submit(context.Background(), view.ID, actor)
	var vErr *qbank.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "missing selection", vErr.Message)

	// 提交失败时会话仍可继续编辑
	_, err = env.svc.GetSession(view.ID, actor)
	assert.NoError(t, err)
}

func TestLoadFromDatabaseConfiguration(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	view := env.svc.OpenSession(actor, env.fx.selection())

	view, err := env.svc.Load(context.Background(), view.ID, actor, qbank.Selection{})
	require.NoError(t, err)
	require.Len(t, view.Tree.Modules(), 2)
	for _, m := range view.Tree.Modules() {
		require.Len(t, m.Categories, 2)
		assert.True(t, m.Categories[0].Confirmed)
		assert.Equal(t, "Part A", m.Categories[0].Name)
		assert.Len(t, m.Categories[0].Questions, 2)
		assert.Len(t, m.Categories[1].Questions, 1)
	}
	assert.Equal(t, env.fx.selection(), view.Selection)
}

func TestLoadFailureKeepsTree(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	view := env.svc.OpenSession(actor, qbank.Selection{})
	_, err := env.svc.InitModules(view.ID, actor, "3")
	require.NoError(t, err)

	_, err = env.svc.Load(context.Background(), view.ID, actor, qbank.Selection{})
	var vErr *qbank.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "missing selection", vErr.Message)

	sel := env.fx.selection()
	sel.CourseID = "999"
	_, err = env.svc.Load(context.Background(), view.ID, actor, sel)
	var cErr *qbank.ConfigurationError
	require.True(t, errors.As(err, &cErr))
	assert.ErrorIs(t, err, util.ErrConfigurationNotFound)

	got, err := env.svc.GetSession(view.ID, actor)
	require.NoError(t, err)
	assert.Len(t, got.Tree.Modules(), 3)
}

func TestSessionOwnership(t *testing.T) {
	env := newTestEnv(t)
	view := env.svc.OpenSession(env.faculty(), qbank.Selection{})

	_, err := env.svc.GetSession(view.ID, Actor{UserID: env.fx.other.ID})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.svc.GetSession(view.ID, Actor{UserID: env.fx.other.ID, Admin: true})
	assert.NoError(t, err)

	_, err = env.svc.GetSession("missing", env.faculty())
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestStaleReferencesAreNoOps(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	view := env.svc.OpenSession(actor, qbank.Selection{})

	view, err := env.svc.AddQuestion(view.ID, actor, "missing")
	require.NoError(t, err)
	assert.False(t, view.Changed)

	view, err = env.svc.DeleteQuestion(view.ID, actor, "missing")
	require.NoError(t, err)
	assert.False(t, view.Changed)

	content := "x"
	view, err = env.svc.UpdateBlock(view.ID, actor, "q", "b", BlockUpdate{Content: &content})
	require.NoError(t, err)
	assert.False(t, view.Changed)
	assert.NotContains(t, env.events.types(), EventTreeUpdated)
}

func loadedSession(t *testing.T, env *testEnv) (string, *qbank.Question) {
	t.Helper()
	view := env.svc.OpenSession(env.faculty(), env.fx.selection())
	view, err := env.svc.Load(context.Background(), view.ID, env.faculty(), qbank.Selection{})
	require.NoError(t, err)
	return view.ID, firstQuestion(view)
}

func TestUpdateBlock(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)
	blockID := q.Blocks[0].ID

	content, marks, level, outcome := "Define $x$", 2, 3, 1
	view, err := env.svc.UpdateBlock(id, actor, q.ID, blockID, BlockUpdate{Content: &content, Marks: &marks})
	require.NoError(t, err)
	assert.True(t, view.Changed)

	view, err = env.svc.UpdateBlock(id, actor, q.ID, blockID, BlockUpdate{BloomsLevel: &level, CourseOutcome: &outcome})
	require.NoError(t, err)
	got := firstQuestion(view)
	assert.Equal(t, "Define $x$", got.Blocks[0].Content)
	assert.Equal(t, 2, got.Blocks[0].Marks)
	assert.Equal(t, 3, got.Blocks[0].BloomsLevel)
	assert.Equal(t, 1, got.CourseOutcome)
}

func TestUploadBlockImageWait(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)
	blockID := q.Blocks[0].ID

	ticket, err := env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, blockID, "fig.png", bytes.NewReader(pngBytes), true)
	require.NoError(t, err)
	assert.True(t, ticket.Accepted)
	assert.False(t, ticket.Pending)
	assert.Equal(t, "https://img.test/1/fig.png", ticket.URL)

	view, err := env.svc.GetSession(id, actor)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.test/1/fig.png"}, firstQuestion(view).Blocks[0].ImageURLs)
	assert.Contains(t, env.events.types(), EventImageUploaded)

	view, err = env.svc.RemoveBlockImage(id, actor, q.ID, blockID, 0)
	require.NoError(t, err)
	assert.Empty(t, firstQuestion(view).Blocks[0].ImageURLs)
}

func TestUploadBlockImageRejectsInvalidFile(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)

	_, err := env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, q.Blocks[0].ID, "notes.txt", bytes.NewReader(pngBytes), true)
	assert.ErrorIs(t, err, util.ErrInvalidImage)

	_, err = env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, q.Blocks[0].ID, "fake.png", bytes.NewReader([]byte("plain text")), true)
	assert.ErrorIs(t, err, util.ErrInvalidImage)

	env.svc.MaxImageBytes = 16
	_, err = env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, q.Blocks[0].ID, "big.png", bytes.NewReader(pngBytes), true)
	assert.ErrorIs(t, err, util.ErrImageTooLarge)
	assert.Equal(t, 0, env.images.calls)
}

func TestUploadToMissingBlockIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)

	ticket, err := env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, "gone", "fig.png", bytes.NewReader(pngBytes), true)
	require.NoError(t, err)
	assert.False(t, ticket.Accepted)
	assert.Equal(t, 0, env.images.calls)
}

func TestUploadDiscardedAfterQuestionDeleted(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)
	env.images.release = make(chan struct{})

	done := make(chan *UploadTicket, 1)
	go func() {
		ticket, err := env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, q.Blocks[0].ID, "fig.png", bytes.NewReader(pngBytes), true)
		assert.NoError(t, err)
		done <- ticket
	}()

	require.Eventually(t, func() bool {
		v, err := env.svc.GetSession(id, actor)
		return err == nil && v.PendingUploads == 1
	}, time.Second, 5*time.Millisecond)

	_, err := env.svc.DeleteQuestion(id, actor, q.ID)
	require.NoError(t, err)

	select {
	case ticket := <-done:
		assert.True(t, ticket.Discarded)
		assert.Empty(t, ticket.URL)
	case <-time.After(time.Second):
		t.Fatal("upload was not cancelled")
	}

	view, err := env.svc.GetSession(id, actor)
	require.NoError(t, err)
	assert.Equal(t, 0, view.PendingUploads)
	for _, c := range view.Tree.Modules()[0].Categories {
		for _, qq := range c.Questions {
			for _, b := range qq.Blocks {
				assert.Empty(t, b.ImageURLs)
			}
		}
	}
}

func TestUploadWithoutWaitCompletesLater(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)
	env.images.release = make(chan struct{})

	ticket, err := env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, q.Blocks[0].ID, "fig.png", bytes.NewReader(pngBytes), false)
	require.NoError(t, err)
	assert.True(t, ticket.Accepted)
	assert.True(t, ticket.Pending)

	close(env.images.release)
	require.Eventually(t, func() bool {
		v, err := env.svc.GetSession(id, actor)
		return err == nil && len(firstQuestion(v).Blocks[0].ImageURLs) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDraftRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.faculty()
	id, q := loadedSession(t, env)

	content := "What is a loop?"
	_, err := env.svc.UpdateBlock(id, actor, q.ID, q.Blocks[0].ID, BlockUpdate{Content: &content})
	require.NoError(t, err)

	draft, err := env.svc.SaveDraft(ctx, id, actor)
	require.NoError(t, err)
	again, err := env.svc.SaveDraft(ctx, id, actor)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, again.ID)

	drafts, err := env.svc.ListDrafts(ctx, actor)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, env.fx.selection().CourseID, drafts[0].CourseID)

	require.NoError(t, env.svc.CloseSession(id, actor))

	resumed, err := env.svc.ResumeDraft(ctx, actor, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, resumed.DraftID)
	assert.Equal(t, env.fx.selection(), resumed.Selection)
	assert.Equal(t, "What is a loop?", firstQuestion(resumed).Blocks[0].Content)

	// 提交后草稿被删除
	for _, m := range resumed.Tree.Modules() {
		for _, c := range m.Categories {
			assert.GreaterOrEqual(t, len(c.Questions), c.NumberOfQuestions)
		}
	}
	_, err = env.svc.Submit(ctx, resumed.ID, actor)
	require.NoError(t, err)
	_, err = env.svc.ResumeDraft(ctx, actor, draft.ID)
	assert.ErrorIs(t, err, util.ErrDraftNotFound)
}

func TestDeleteDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := env.faculty()
	view := env.svc.OpenSession(actor, qbank.Selection{})

	draft, err := env.svc.SaveDraft(ctx, view.ID, actor)
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.DeleteDraft(ctx, Actor{UserID: env.fx.other.ID}, draft.ID), util.ErrDraftNotFound)
	require.NoError(t, env.svc.DeleteDraft(ctx, actor, draft.ID))
	assert.ErrorIs(t, env.svc.DeleteDraft(ctx, actor, draft.ID), util.ErrDraftNotFound)
}

func TestReapIdleSessions(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	now := time.Now()
	env.svc.now = func() time.Time { return now }

	stale := env.svc.OpenSession(actor, qbank.Selection{})
	now = now.Add(45 * time.Minute)
	fresh := env.svc.OpenSession(actor, qbank.Selection{})
	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, env.svc.ReapIdle())
	_, err := env.svc.GetSession(stale.ID, actor)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	_, err = env.svc.GetSession(fresh.ID, actor)
	assert.NoError(t, err)

	list := env.svc.ListSessions(actor)
	require.Len(t, list, 1)
	assert.Equal(t, fresh.ID, list[0].ID)
}

func TestCloseSessionCancelsUploads(t *testing.T) {
	env := newTestEnv(t)
	actor := env.faculty()
	id, q := loadedSession(t, env)
	env.images.release = make(chan struct{})

	ticket, err := env.svc.UploadBlockImage(context.Background(), id, actor, q.ID, q.Blocks[0].ID, "fig.png", bytes.NewReader(pngBytes), false)
	require.NoError(t, err)
	require.True(t, ticket.Accepted)

	require.NoError(t, env.svc.CloseSession(id, actor))
	_, err = env.svc.InitModules(id, actor, "2")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.NotContains(t, env.events.types(), EventImageUploaded)
}
