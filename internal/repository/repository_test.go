package repository

import (
	"context"
	"encoding/json"
	"examcell_backend/internal/config"
	"examcell_backend/internal/model"
	"examcell_backend/pkg/database"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

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

func seedOffering(t *testing.T, db *gorm.DB) *model.CourseOffering {
	t.Helper()
	dept := &model.Department{DepartmentName: "Computer Science", Abbreviation: "CSE"}
	course := &model.Course{CourseCode: "CS101", CourseTitle: "Programming", Credits: 4}
	program := &model.Program{ProgramName: "B.Tech"}
	reg := &model.Regulation{RegulationName: "R22", SectionRules: []model.SectionRule{
		{SectionName: "Part B", Marks: 10, MinQuestionsCount: 2, Order: 2},
		{SectionName: "Part A", Marks: 2, MinQuestionsCount: 5, Order: 1},
	}}
	require.NoError(t, db.Create(dept).Error)
	require.NoError(t, db.Create(course).Error)
	require.NoError(t, db.Create(program).Error)
	require.NoError(t, NewRegulationRepository(db).Create(reg))

	o := &model.CourseOffering{
		AcademicYear: "2024-25",
		Semester:     "I",
		DepartmentID: dept.ID,
		CourseID:     course.ID,
		ProgramID:    program.ID,
		RegulationID: reg.ID,
		Modules: []model.ModuleInfo{
			{ModuleNo: 2, ModuleName: "Loops"},
			{ModuleNo: 1, ModuleName: "Basics"},
		},
	}
	require.NoError(t, NewCourseOfferingRepository(db).Create(o))
	return o
}

func TestRegulationRulesOrderedAndReplaced(t *testing.T) {
	db := openTestDB(t)
	repo := NewRegulationRepository(db)
	o := seedOffering(t, db)

	reg, err := repo.FindByID(o.RegulationID)
	require.NoError(t, err)
	require.Len(t, reg.SectionRules, 2)
	assert.Equal(t, "Part A", reg.SectionRules[0].SectionName)

	reg.SectionRules = []model.SectionRule{{SectionName: "Only", Marks: 5, MinQuestionsCount: 3}}
	require.NoError(t, repo.Update(reg))

	reg, err = repo.FindByID(o.RegulationID)
	require.NoError(t, err)
	require.Len(t, reg.SectionRules, 1)
	assert.Equal(t, "Only", reg.SectionRules[0].SectionName)
}

func TestCourseOfferingFindBySelection(t *testing.T) {
	db := openTestDB(t)
	repo := NewCourseOfferingRepository(db)
	o := seedOffering(t, db)

	found, err := repo.FindBySelection(o.DepartmentID, o.CourseID, o.ProgramID, o.RegulationID)
	require.NoError(t, err)
	require.Len(t, found.Modules, 2)
	assert.Equal(t, 1, found.Modules[0].ModuleNo)

	_, err = repo.FindBySelection(o.DepartmentID, o.CourseID, o.ProgramID, o.RegulationID+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	n, err := repo.CountReferencing("course_id", o.CourseID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCourseOfferingUniqueSelection(t *testing.T) {
	db := openTestDB(t)
	repo := NewCourseOfferingRepository(db)
	o := seedOffering(t, db)

	dup := &model.CourseOffering{
		DepartmentID: o.DepartmentID,
		CourseID:     o.CourseID,
		ProgramID:    o.ProgramID,
		RegulationID: o.RegulationID,
	}
	assert.ErrorIs(t, repo.Create(dup), gorm.ErrDuplicatedKey)
}

func TestQuestionBankReviewAndStats(t *testing.T) {
	db := openTestDB(t)
	repo := NewQuestionBankRepository(db)
	faculty := &model.User{Username: "f1", Name: "Faculty", Password: "x"}
	require.NoError(t, db.Create(faculty).Error)

	var ids []string
	for i := 0; i < 3; i++ {
		qb := &model.QuestionBank{FacultyID: faculty.ID, ReviewStatus: model.ReviewPending, SubmittedAt: time.Now(), Tree: []byte(`{"modules":[]}`)}
		require.NoError(t, repo.Create(qb))
		require.NotEmpty(t, qb.ID)
		ids = append(ids, qb.ID)
	}

	ok, err := repo.Review(ids[0], model.ReviewAccepted, "", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	// 已审核的题库不能再次审核
	ok, err = repo.Review(ids[0], model.ReviewRejected, "late", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.Review(ids[1], model.ReviewRejected, "too easy", 1)
	require.NoError(t, err)
	assert.True(t, ok)

	stats, err := repo.Stats(QuestionBankFilter{})
	require.NoError(t, err)
	assert.Equal(t, model.QuestionBankStats{Total: 3, Pending: 1, Accepted: 1, Rejected: 1}, *stats)

	list, total, err := repo.FindWithPagination(0, 10, QuestionBankFilter{FacultyID: faculty.ID, Status: model.ReviewRejected})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "too easy", list[0].Comment)

	qb, err := repo.FindByID(ids[1])
	require.NoError(t, err)
	assert.Equal(t, "f1", qb.Faculty.Username)
	assert.JSONEq(t, `{"modules":[]}`, string(qb.Tree))
}

func TestUserRolesAndDropdown(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, database.Seed(db, configAdmin()))
	repo := NewUserRepository(db)

	roles, err := repo.FindRolesByNames([]model.UserRole{model.Faculty})
	require.NoError(t, err)
	u := &model.User{Username: "prof", Name: "Prof", Password: "x", Roles: roles}
	require.NoError(t, repo.Create(u))

	faculty, err := repo.Dropdown(model.Faculty)
	require.NoError(t, err)
	require.Len(t, faculty, 1)
	assert.Equal(t, "prof", faculty[0].Username)

	list, total, err := repo.FindWithPagination(0, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	examCell, err := repo.FindRolesByNames([]model.UserRole{model.ExamCell})
	require.NoError(t, err)
	u.Roles = examCell
	require.NoError(t, repo.Update(u))
	got, err := repo.FindByUsername("prof")
	require.NoError(t, err)
	assert.Equal(t, []string{"exam_cell"}, got.RoleNames())

	require.NoError(t, repo.Delete(u.ID))
	assert.ErrorIs(t, repo.Delete(u.ID), gorm.ErrRecordNotFound)
}

func TestDraftRepository(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewDraftRepository(rdb, time.Hour)
	ctx := context.Background()

	older := &model.QuestionBankDraft{ID: "d1", UserID: 3, CourseID: "1", Tree: json.RawMessage(`{"modules":[]}`), SavedAt: time.Now().Add(-time.Minute)}
	newer := &model.QuestionBankDraft{ID: "d2", UserID: 3, CourseID: "2", Tree: json.RawMessage(`{"modules":[]}`), SavedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.Get(ctx, 3, "d1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"modules":[]}`, string(got.Tree))

	_, err = repo.Get(ctx, 4, "d1")
	assert.ErrorIs(t, err, redis.Nil)

	list, err := repo.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "d2", list[0].ID)
	assert.Nil(t, list[0].Tree)

	mr.FastForward(2 * time.Hour)
	list, err = repo.List(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Delete(ctx, 3, "d1"))
	_, err = repo.Get(ctx, 3, "d1")
	assert.ErrorIs(t, err, redis.Nil)
}

func configAdmin() config.AdminConfig {
	return config.AdminConfig{Username: "admin", Password: "admin-pass"}
}
