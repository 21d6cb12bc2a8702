package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"examcell_backend/internal/model"
	"examcell_backend/internal/qbank"
	"examcell_backend/internal/repository"
	"examcell_backend/pkg/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// pngBytes 最小的 PNG 文件头，足以通过类型嗅探
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	offering *model.CourseOffering
	faculty  *model.User
	other    *model.User
}

func (f fixture) selection() qbank.Selection {
	o := f.offering
	return qbank.Selection{
		DepartmentID: fmt.Sprint(o.DepartmentID),
		CourseID:     fmt.Sprint(o.CourseID),
		ProgramID:    fmt.Sprint(o.ProgramID),
		RegulationID: fmt.Sprint(o.RegulationID),
	}
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	faculty := &model.User{Username: "prof", Name: "Prof X", Password: "x"}
	other := &model.User{Username: "other", Name: "Other", Password: "x"}
	require.NoError(t, db.Create(faculty).Error)
	require.NoError(t, db.Create(other).Error)

	dept := &model.Department{DepartmentName: "Computer Science", Abbreviation: "CSE"}
	course := &model.Course{CourseCode: "CS101", CourseTitle: "Programming", Credits: 4}
	program := &model.Program{ProgramName: "B.Tech"}
	reg := &model.Regulation{RegulationName: "R22", SectionRules: []model.SectionRule{
		{SectionName: "Part A", Marks: 2, MinQuestionsCount: 2, Order: 1},
		{SectionName: "Part B", Marks: 10, MinQuestionsCount: 1, Order: 2},
	}}
	require.NoError(t, db.Create(dept).Error)
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, db.Create(program).Error)
	require.NoError(t, repository.NewRegulationRepository(db).Create(reg))

	o := &model.CourseOffering{
		AcademicYear: "2024-25",
		Semester:     "I",
		YearOfStudy:  "II",
		DepartmentID: dept.ID,
		CourseID:     course.ID,
		ProgramID:    program.ID,
		RegulationID: reg.ID,
		Instructors:  []model.User{*faculty},
		Modules: []model.ModuleInfo{
			{ModuleNo: 1, ModuleName: "Basics"},
			{ModuleNo: 2, ModuleName: "Loops"},
		},
	}
	require.NoError(t, repository.NewCourseOfferingRepository(db).Create(o))
	return fixture{offering: o, faculty: faculty, other: other}
}

// fakeImageHost 可选地阻塞直到 release 关闭，用来模拟慢上传
type fakeImageHost struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
}

func (h *fakeImageHost) UploadImage(ctx context.Context, name string, r io.Reader, size int64, contentType string) (qbank.ImageResult, error) {
	h.mu.Lock()
	h.calls++
	n := h.calls
	h.mu.Unlock()
	if h.release != nil {
		select {
		case <-h.release:
		case <-ctx.Done():
			return qbank.ImageResult{}, ctx.Err()
		}
	}
	if h.err != nil {
		return qbank.ImageResult{}, h.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return qbank.ImageResult{}, err
	}
	return qbank.ImageResult{SecureURL: fmt.Sprintf("https://img.test/%d/%s", n, name)}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SessionEvent
}

func (p *recordingPublisher) Publish(evt SessionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	db       *gorm.DB
	fx       fixture
	svc      *QuestionBankService
	images   *fakeImageHost
	events   *recordingPublisher
	bankRepo *repository.QuestionBankRepository
	mr       *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := openTestDB(t)
	fx := seedFixture(t, db)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	offeringRepo := repository.NewCourseOfferingRepository(db)
	bankRepo := repository.NewQuestionBankRepository(db)
	configSvc := NewConfigurationService(offeringRepo, repository.NewRegulationRepository(db))

	images := &fakeImageHost{}
	events := &recordingPublisher{}
	svc := NewQuestionBankService(
		qbank.NewLoader(configSvc),
		images,
		bankRepo,
		offeringRepo,
		repository.NewDraftRepository(rdb, time.Hour),
		events,
		time.Hour,
		1<<20,
	)
	t.Cleanup(svc.Shutdown)
	return &testEnv{db: db, fx: fx, svc: svc, images: images, events: events, bankRepo: bankRepo, mr: mr}
}

func (e *testEnv) faculty() Actor {
	return Actor{UserID: e.fx.faculty.ID}
}
