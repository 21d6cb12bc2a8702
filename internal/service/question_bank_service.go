package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"examcell_backend/internal/model"
	"examcell_backend/internal/qbank"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
	"examcell_backend/pkg/logger"
	"examcell_backend/pkg/monitoring"
	"examcell_backend/pkg/tracing"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor 发起操作的用户，管理员可以操作任何会话
type Actor struct {
	UserID uint
	Admin  bool
}

func ActorFromClaims(c *util.Claims) Actor {
	return Actor{UserID: c.UserID, Admin: c.HasRole()}
}

// Session 一次题库编辑会话，所有树操作都在 mu 下串行执行
type Session struct {
	ID        string
	OwnerID   uint
	CreatedAt time.Time

	mu         sync.Mutex
	tree       *qbank.Tree
	uploads    *qbank.UploadTracker
	selection  qbank.Selection
	draftID    string
	closed     bool
	lastActive time.Time
}

type SessionView struct {
	ID             string          `json:"id"`
	OwnerID        uint            `json:"ownerId"`
	Selection      qbank.Selection `json:"selection"`
	DraftID        string          `json:"draftId,omitempty"`
	Changed        bool            `json:"changed"`
	PendingUploads int             `json:"pendingUploads"`
	Stats          qbank.Stats     `json:"stats"`
	Tree           *qbank.Tree     `json:"tree" swaggertype:"object"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastActive     time.Time       `json:"lastActive"`
}

// SessionSummary 会话列表项，不含树内容
type SessionSummary struct {
	ID         string          `json:"id"`
	Selection  qbank.Selection `json:"selection"`
	DraftID    string          `json:"draftId,omitempty"`
	Stats      qbank.Stats     `json:"stats"`
	LastActive time.Time       `json:"lastActive"`
}

// UploadTicket 图片上传受理结果；Wait 时 URL 为最终地址
type UploadTicket struct {
	Accepted  bool   `json:"accepted"`
	Pending   bool   `json:"pending"`
	Discarded bool   `json:"discarded"`
	URL       string `json:"url,omitempty"`
}

type QuestionBankService struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	Loader        *qbank.Loader
	Images        qbank.ImageHost
	BankRepo      *repository.QuestionBankRepository
	OfferingRepo  *repository.CourseOfferingRepository
	DraftRepo     *repository.DraftRepository
	Events        EventPublisher
	IdleTimeout   time.Duration
	MaxImageBytes int64

	treeOptions []qbank.Option
	now         func() time.Time
}

func NewQuestionBankService(
	loader *qbank.Loader,
	images qbank.ImageHost,
	bankRepo *repository.QuestionBankRepository,
	offeringRepo *repository.CourseOfferingRepository,
	draftRepo *repository.DraftRepository,
	events EventPublisher,
	idleTimeout time.Duration,
	maxImageBytes int64,
) *QuestionBankService {
	return &QuestionBankService{
		sessions:      make(map[string]*Session),
		Loader:        loader,
		Images:        images,
		BankRepo:      bankRepo,
		OfferingRepo:  offeringRepo,
		DraftRepo:     draftRepo,
		Events:        events,
		IdleTimeout:   idleTimeout,
		MaxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

func (s *QuestionBankService) newTree() *qbank.Tree {
	return qbank.NewTree(s.treeOptions...)
}

func (s *QuestionBankService) publish(sessionID, typ string, data interface{}) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(SessionEvent{Type: typ, SessionID: sessionID, Data: data})
}

func (s *QuestionBankService) register(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	monitoring.ActiveSessions.Inc()
}

func (s *QuestionBankService) unregister(id string) {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		monitoring.ActiveSessions.Dec()
	}
}

func (s *QuestionBankService) lookup(id string, actor Actor) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if !actor.Admin && sess.OwnerID != actor.UserID {
		return nil, util.ErrPermissionDenied
	}
	return sess, nil
}

// withSession 在会话锁内执行 fn，会话关闭后返回 ErrSessionClosed
func (s *QuestionBankService) withSession(id string, actor Actor, fn func(sess *Session) error) error {
	sess, err := s.lookup(id, actor)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return util.ErrSessionClosed
	}
	sess.lastActive = s.now()
	return fn(sess)
}

// mutate 执行树操作并返回最新快照，changed 为 false 表示引用失效被静默忽略
func (s *QuestionBankService) mutate(id string, actor Actor, op string, fn func(sess *Session) (bool, error)) (*SessionView, error) {
	var view *SessionView
	err := s.withSession(id, actor, func(sess *Session) error {
		changed, err := fn(sess)
		if err != nil {
			return err
		}
		view = sess.view()
		view.Changed = changed
		if changed {
			s.publish(sess.ID, EventTreeUpdated, eventData{"op": op, "stats": view.Stats})
		}
		return nil
	})
	return view, err
}

type eventData map[string]interface{}

// view 调用方需持有 sess.mu
func (sess *Session) view() *SessionView {
	return &SessionView{
		ID:             sess.ID,
		OwnerID:        sess.OwnerID,
		Selection:      sess.selection,
		DraftID:        sess.draftID,
		PendingUploads: sess.uploads.Pending(),
		Stats:          sess.tree.Stats(),
		Tree:           sess.tree.Clone(),
		CreatedAt:      sess.CreatedAt,
		LastActive:     sess.lastActive,
	}
}

// closeLocked 调用方需持有 sess.mu；进行中的上传被取消，完成回调会被丢弃
func (sess *Session) closeLocked() {
	sess.closed = true
	sess.uploads.Close()
}

func allBlockIDs(t *qbank.Tree) []string {
	var ids []string
	for _, m := range t.Modules() {
		for _, c := range m.Categories {
			for _, q := range c.Questions {
				ids = append(ids, q.BlockIDs()...)
			}
		}
	}
	return ids
}

func (s *QuestionBankService) openSession(actor Actor, sel qbank.Selection, tree *qbank.Tree, draftID string) *SessionView {
	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		OwnerID:    actor.UserID,
		CreatedAt:  now,
		tree:       tree,
		uploads:    qbank.NewUploadTracker(),
		selection:  sel,
		draftID:    draftID,
		lastActive: now,
	}
	s.register(sess)
	logger.Log.Info("Question bank session opened",
		zap.String("sessionId", sess.ID),
		zap.Uint("userId", actor.UserID),
		zap.String("draftId", draftID),
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view()
}

// OpenSession 以空树开始一次编辑
func (s *QuestionBankService) OpenSession(actor Actor, sel qbank.Selection) *SessionView {
	return s.openSession(actor, normalizeSelection(sel), s.newTree(), "")
}

func (s *QuestionBankService) GetSession(id string, actor Actor) (*SessionView, error) {
	var view *SessionView
	err := s.withSession(id, actor, func(sess *Session) error {
		view = sess.view()
		return nil
	})
	return view, err
}

// ListSessions 当前用户打开的会话
func (s *QuestionBankService) ListSessions(actor Actor) []SessionSummary {
	s.mu.RLock()
	owned := make([]*Session, 0)
	for _, sess := range s.sessions {
		if sess.OwnerID == actor.UserID {
			owned = append(owned, sess)
		}
	}
	s.mu.RUnlock()

	list := make([]SessionSummary, 0, len(owned))
	for _, sess := range owned {
		sess.mu.Lock()
		if !sess.closed {
			list = append(list, SessionSummary{
				ID:         sess.ID,
				Selection:  sess.selection,
				DraftID:    sess.draftID,
				Stats:      sess.tree.Stats(),
				LastActive: sess.lastActive,
			})
		}
		sess.mu.Unlock()
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LastActive.After(list[j].LastActive) })
	return list
}

func (s *QuestionBankService) CloseSession(id string, actor Actor) error {
	err := s.withSession(id, actor, func(sess *Session) error {
		sess.closeLocked()
		return nil
	})
	if err != nil {
		return err
	}
	s.unregister(id)
	s.publish(id, EventSessionClosed, nil)
	logger.Log.Info("Question bank session closed", zap.String("sessionId", id), zap.Uint("userId", actor.UserID))
	return nil
}

func (s *QuestionBankService) SetSelection(id string, actor Actor, sel qbank.Selection) (*SessionView, error) {
	return s.mutate(id, actor, "set_selection", func(sess *Session) (bool, error) {
		sess.selection = normalizeSelection(sel)
		return true, nil
	})
}

// InitModules 重建整棵树，旧内容块上的上传全部取消
func (s *QuestionBankService) InitModules(id string, actor Actor, raw string) (*SessionView, error) {
	return s.mutate(id, actor, "init_modules", func(sess *Session) (bool, error) {
		old := allBlockIDs(sess.tree)
		if err := sess.tree.InitModulesInput(raw); err != nil {
			return false, err
		}
		sess.uploads.CancelBlocks(old...)
		return true, nil
	})
}

func (s *QuestionBankService) AddCategories(id string, actor Actor, moduleID string, count int) (*SessionView, error) {
	return s.mutate(id, actor, "add_categories", func(sess *Session) (bool, error) {
		if _, err := sess.tree.AddCategories(moduleID, count); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *QuestionBankService) SetCategoryField(id string, actor Actor, moduleID, categoryID, field, value string) (*SessionView, error) {
	f, err := qbank.ParseCategoryField(field)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, actor, "set_category_field", func(sess *Session) (bool, error) {
		return sess.tree.SetCategoryField(moduleID, categoryID, f, value), nil
	})
}

func (s *QuestionBankService) ConfirmCategory(id string, actor Actor, moduleID, categoryID string) (*SessionView, error) {
	return s.mutate(id, actor, "confirm_category", func(sess *Session) (bool, error) {
		return sess.tree.ConfirmCategory(moduleID, categoryID)
	})
}

func (s *QuestionBankService) AddQuestion(id string, actor Actor, categoryID string) (*SessionView, error) {
	return s.mutate(id, actor, "add_question", func(sess *Session) (bool, error) {
		q, err := sess.tree.AddQuestion(categoryID)
		return q != nil, err
	})
}

// DeleteQuestion 同时取消该题所有内容块上的上传
func (s *QuestionBankService) DeleteQuestion(id string, actor Actor, questionID string) (*SessionView, error) {
	return s.mutate(id, actor, "delete_question", func(sess *Session) (bool, error) {
		_, q := sess.tree.FindQuestion(questionID)
		if q == nil {
			return false, nil
		}
		blocks := q.BlockIDs()
		if !sess.tree.DeleteQuestion(questionID) {
			return false, nil
		}
		sess.uploads.CancelBlocks(blocks...)
		return true, nil
	})
}

func (s *QuestionBankService) AddBlock(id string, actor Actor, questionID string) (*SessionView, error) {
	return s.mutate(id, actor, "add_block", func(sess *Session) (bool, error) {
		return sess.tree.AddBlock(questionID) != nil, nil
	})
}

func (s *QuestionBankService) RemoveBlock(id string, actor Actor, questionID, blockID string) (*SessionView, error) {
	return s.mutate(id, actor, "remove_block", func(sess *Session) (bool, error) {
		if !sess.tree.RemoveBlock(questionID, blockID) {
			return false, nil
		}
		sess.uploads.CancelBlocks(blockID)
		return true, nil
	})
}

// BlockUpdate 为 nil 的字段保持不变
type BlockUpdate struct {
	Content       *string `json:"content"`
	Marks         *int    `json:"marks"`
	BloomsLevel   *int    `json:"bloomsLevel"`
	CourseOutcome *int    `json:"courseOutcome"`
}

func (s *QuestionBankService) UpdateBlock(id string, actor Actor, questionID, blockID string, upd BlockUpdate) (*SessionView, error) {
	return s.mutate(id, actor, "update_block", func(sess *Session) (bool, error) {
		if !sess.tree.HasBlock(questionID, blockID) {
			return false, nil
		}
		if upd.Content != nil {
			sess.tree.UpdateBlockContent(questionID, blockID, *upd.Content)
		}
		if upd.Marks != nil || upd.BloomsLevel != nil {
			marks, level := currentBlockMeta(sess.tree, questionID, blockID)
			if upd.Marks != nil {
				marks = *upd.Marks
			}
			if upd.BloomsLevel != nil {
				level = *upd.BloomsLevel
			}
			sess.tree.SetBlockMeta(questionID, blockID, marks, level)
		}
		if upd.CourseOutcome != nil {
			sess.tree.SetQuestionOutcome(questionID, *upd.CourseOutcome)
		}
		return true, nil
	})
}

func currentBlockMeta(t *qbank.Tree, questionID, blockID string) (int, int) {
	_, q := t.FindQuestion(questionID)
	if q == nil {
		return 0, 0
	}
	for _, b := range q.Blocks {
		if b.ID == blockID {
			return b.Marks, b.BloomsLevel
		}
	}
	return 0, 0
}

func (s *QuestionBankService) RemoveBlockImage(id string, actor Actor, questionID, blockID string, index int) (*SessionView, error) {
	return s.mutate(id, actor, "remove_block_image", func(sess *Session) (bool, error) {
		return sess.tree.RemoveBlockImage(questionID, blockID, index), nil
	})
}

// UploadBlockImage 校验后异步上传；完成时内容块仍存在才追加地址。
// wait 为 true 时等待上传结束或 ctx 结束。
func (s *QuestionBankService) UploadBlockImage(ctx context.Context, id string, actor Actor, questionID, blockID, filename string, r io.Reader, wait bool) (*UploadTicket, error) {
	if _, err := s.lookup(id, actor); err != nil {
		return nil, err
	}
	data, contentType, err := ReadImage(filename, r, s.MaxImageBytes)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		url string
		err error
	}
	finished := make(chan outcome, 1)
	ticket := &UploadTicket{}

	err = s.withSession(id, actor, func(sess *Session) error {
		if !sess.tree.HasBlock(questionID, blockID) {
			return nil
		}
		run := func(ctx context.Context) (string, error) {
			res, err := s.Images.UploadImage(ctx, filename, bytes.NewReader(data), int64(len(data)), contentType)
			if err != nil {
				return "", err
			}
			return res.SecureURL, nil
		}
		done := func(url string, err error) {
			url, err = s.completeUpload(sess, questionID, blockID, url, err)
			finished <- outcome{url: url, err: err}
		}
		ticket.Accepted = sess.uploads.Start(context.Background(), blockID, run, done)
		ticket.Pending = ticket.Accepted
		return nil
	})
	if err != nil || !ticket.Accepted || !wait {
		return ticket, err
	}

	select {
	case out := <-finished:
		ticket.Pending = false
		if errors.Is(out.err, qbank.ErrUploadDiscarded) {
			ticket.Discarded = true
			return ticket, nil
		}
		if out.err != nil {
			return ticket, out.err
		}
		ticket.URL = out.url
		return ticket, nil
	case <-ctx.Done():
		return ticket, nil
	}
}

func (s *QuestionBankService) completeUpload(sess *Session, questionID, blockID, url string, err error) (string, error) {
	fields := []zap.Field{
		zap.String("sessionId", sess.ID),
		zap.String("questionId", questionID),
		zap.String("blockId", blockID),
	}
	if errors.Is(err, qbank.ErrUploadDiscarded) {
		monitoring.ImageUploads.WithLabelValues("discarded").Inc()
		logger.Log.Info("Image upload discarded", fields...)
		return "", err
	}
	if err != nil {
		logger.Log.Warn("Image upload failed", append(fields, zap.Error(err))...)
		s.publish(sess.ID, EventUploadFailed, eventData{"questionId": questionID, "blockId": blockID, "error": err.Error()})
		return "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || !sess.tree.AddBlockImage(questionID, blockID, url) {
		monitoring.ImageUploads.WithLabelValues("discarded").Inc()
		logger.Log.Info("Late image upload ignored", fields...)
		return "", qbank.ErrUploadDiscarded
	}
	s.publish(sess.ID, EventImageUploaded, eventData{"questionId": questionID, "blockId": blockID, "url": url})
	return url, nil
}

// Load 配置在锁外拉取，成功后在锁内整体替换树
func (s *QuestionBankService) Load(ctx context.Context, id string, actor Actor, sel qbank.Selection) (view *SessionView, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuestionBankService.Load", attribute.String("session_id", id))
	defer func() { tracing.End(span, err) }()

	sess, err := s.lookup(id, actor)
	if err != nil {
		return nil, err
	}
	sel = normalizeSelection(sel)
	if sel == (qbank.Selection{}) {
		sess.mu.Lock()
		sel = sess.selection
		sess.mu.Unlock()
	}

	resp, err := s.Loader.Fetch(ctx, sel)
	if err != nil {
		monitoring.ConfigurationLoads.WithLabelValues(loadResult(err)).Inc()
		logger.Log.Warn("Configuration load failed", zap.String("sessionId", id), zap.Error(err))
		return nil, err
	}

	view, err = s.mutate(id, actor, "load_configuration", func(sess *Session) (bool, error) {
		old := allBlockIDs(sess.tree)
		if err := sess.tree.ApplyConfiguration(resp); err != nil {
			return false, err
		}
		sess.uploads.CancelBlocks(old...)
		sess.selection = sel
		return true, nil
	})
	if err != nil {
		monitoring.ConfigurationLoads.WithLabelValues(loadResult(err)).Inc()
		return nil, err
	}
	monitoring.ConfigurationLoads.WithLabelValues("success").Inc()
	return view, nil
}

func loadResult(err error) string {
	var vErr *qbank.ValidationError
	if errors.As(err, &vErr) {
		return "invalid_selection"
	}
	var cErr *qbank.ConfigurationError
	if errors.As(err, &cErr) {
		return "provider_error"
	}
	return "error"
}

// Validate 只做提交前检查，不改动树
func (s *QuestionBankService) Validate(id string, actor Actor) error {
	return s.withSession(id, actor, func(sess *Session) error {
		if len(sess.tree.Modules()) == 0 {
			return &qbank.ValidationError{Message: util.ErrNoModules.Error()}
		}
		return qbank.ValidateForSubmission(sess.tree)
	})
}

// bankSink 把提交的树落库为待审核题库
type bankSink struct {
	svc       *QuestionBankService
	ownerID   uint
	selection qbank.Selection
	created   *model.QuestionBank
}

func (b *bankSink) Accept(ctx context.Context, tree *qbank.Tree) error {
	req, err := b.selection.Request()
	if err != nil {
		return err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("marshal question bank tree: %w", err)
	}

	qb := &model.QuestionBank{
		DepartmentID: uint(req.DepartmentID),
		CourseID:     uint(req.CourseID),
		ProgramID:    uint(req.ProgramID),
		RegulationID: uint(req.RegulationID),
		FacultyID:    b.ownerID,
		ReviewStatus: model.ReviewPending,
		SubmittedAt:  b.svc.now(),
		Tree:         datatypes.JSON(data),
	}

	if b.svc.OfferingRepo != nil {
		offering, err := b.svc.OfferingRepo.FindBySelection(qb.DepartmentID, qb.CourseID, qb.ProgramID, qb.RegulationID)
		switch {
		case err == nil:
			qb.CourseOfferingID = &offering.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find course offering: %w", err)
		}
	}

	if err := b.svc.BankRepo.Create(qb); err != nil {
		return fmt.Errorf("save question bank: %w", err)
	}
	b.created = qb
	return nil
}

// Submit 校验通过后落库并关闭会话，关联草稿一并删除
func (s *QuestionBankService) Submit(ctx context.Context, id string, actor Actor) (qb *model.QuestionBank, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuestionBankService.Submit", attribute.String("session_id", id))
	defer func() { tracing.End(span, err) }()

	var draftID string
	var ownerID uint
	err = s.withSession(id, actor, func(sess *Session) error {
		if len(sess.tree.Modules()) == 0 {
			return &qbank.ValidationError{Message: util.ErrNoModules.Error()}
		}
		sink := &bankSink{svc: s, ownerID: sess.OwnerID, selection: sess.selection}
		if err := qbank.Submit(ctx, sess.tree, sink); err != nil {
			return err
		}
		qb = sink.created
		draftID = sess.draftID
		ownerID = sess.OwnerID
		sess.closeLocked()
		return nil
	})
	if err != nil {
		monitoring.Submissions.WithLabelValues(submitResult(err)).Inc()
		return nil, err
	}
	monitoring.Submissions.WithLabelValues("success").Inc()

	s.unregister(id)
	s.publish(id, EventSessionClosed, eventData{"questionBankId": qb.ID})
	if draftID != "" && s.DraftRepo != nil {
		if err := s.DraftRepo.Delete(ctx, ownerID, draftID); err != nil {
			logger.Log.Warn("Failed to delete submitted draft", zap.String("draftId", draftID), zap.Error(err))
		}
	}
	logger.Log.Info("Question bank submitted",
		zap.String("sessionId", id),
		zap.String("questionBankId", qb.ID),
		zap.Uint("facultyId", ownerID),
	)
	return qb, nil
}

func submitResult(err error) string {
	var incomplete *qbank.IncompleteSectionError
	if errors.As(err, &incomplete) {
		return "incomplete"
	}
	var vErr *qbank.ValidationError
	if errors.As(err, &vErr) {
		return "invalid"
	}
	return "error"
}

// SaveDraft 同一会话重复保存覆盖同一份草稿
func (s *QuestionBankService) SaveDraft(ctx context.Context, id string, actor Actor) (*model.QuestionBankDraft, error) {
	var draft *model.QuestionBankDraft
	err := s.withSession(id, actor, func(sess *Session) error {
		data, err := json.Marshal(sess.tree)
		if err != nil {
			return fmt.Errorf("marshal draft: %w", err)
		}
		draftID := sess.draftID
		if draftID == "" {
			draftID = uuid.NewString()
		}
		d := &model.QuestionBankDraft{
			ID:           draftID,
			UserID:       sess.OwnerID,
			DepartmentID: sess.selection.DepartmentID,
			CourseID:     sess.selection.CourseID,
			ProgramID:    sess.selection.ProgramID,
			RegulationID: sess.selection.RegulationID,
			Tree:         data,
			SavedAt:      s.now(),
		}
		if err := s.DraftRepo.Save(ctx, d); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		sess.draftID = draftID
		draft = d
		return nil
	})
	return draft, err
}

func (s *QuestionBankService) ListDrafts(ctx context.Context, actor Actor) ([]model.QuestionBankDraft, error) {
	return s.DraftRepo.List(ctx, actor.UserID)
}

// ResumeDraft 用草稿内容打开新会话，之后保存仍写回这份草稿
func (s *QuestionBankService) ResumeDraft(ctx context.Context, actor Actor, draftID string) (*SessionView, error) {
	d, err := s.DraftRepo.Get(ctx, actor.UserID, draftID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, util.ErrDraftNotFound
		}
		return nil, err
	}
	tree := s.newTree()
	if len(d.Tree) > 0 {
		if err := json.Unmarshal(d.Tree, tree); err != nil {
			return nil, fmt.Errorf("decode draft %s: %w", draftID, err)
		}
	}
	sel := qbank.Selection{
		DepartmentID: d.DepartmentID,
		CourseID:     d.CourseID,
		ProgramID:    d.ProgramID,
		RegulationID: d.RegulationID,
	}
	return s.openSession(actor, sel, tree, d.ID), nil
}

func (s *QuestionBankService) DeleteDraft(ctx context.Context, actor Actor, draftID string) error {
	if _, err := s.DraftRepo.Get(ctx, actor.UserID, draftID); err != nil {
		if errors.Is(err, redis.Nil) {
			return util.ErrDraftNotFound
		}
		return err
	}
	return s.DraftRepo.Delete(ctx, actor.UserID, draftID)
}

// ReapIdle 关闭超过空闲时间的会话，返回关闭数量
func (s *QuestionBankService) ReapIdle() int {
	if s.IdleTimeout <= 0 {
		return 0
	}
	deadline := s.now().Add(-s.IdleTimeout)

	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	reaped := 0
	for _, sess := range all {
		sess.mu.Lock()
		idle := !sess.closed && sess.lastActive.Before(deadline)
		if idle {
			sess.closeLocked()
		}
		sess.mu.Unlock()
		if idle {
			s.unregister(sess.ID)
			s.publish(sess.ID, EventSessionClosed, eventData{"reason": "idle"})
			reaped++
		}
	}
	if reaped > 0 {
		logger.Log.Info("Idle question bank sessions closed", zap.Int("count", reaped))
	}
	return reaped
}

// RunReaper 周期性清理空闲会话，ctx 结束时退出
func (s *QuestionBankService) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ReapIdle()
		}
	}
}

// Shutdown 关闭全部会话并等待上传任务退出
func (s *QuestionBankService) Shutdown() {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		sess.mu.Lock()
		sess.closeLocked()
		sess.mu.Unlock()
		monitoring.ActiveSessions.Dec()
	}
	for _, sess := range all {
		sess.uploads.Wait()
	}
	logger.Log.Info("Question bank sessions shut down", zap.Int("count", len(all)))
}

// normalizeSelection 去掉前后空白，保持空字段为空
func normalizeSelection(sel qbank.Selection) qbank.Selection {
	return qbank.Selection{
		DepartmentID: strings.TrimSpace(sel.DepartmentID),
		CourseID:     strings.TrimSpace(sel.CourseID),
		ProgramID:    strings.TrimSpace(sel.ProgramID),
		RegulationID: strings.TrimSpace(sel.RegulationID),
	}
}
