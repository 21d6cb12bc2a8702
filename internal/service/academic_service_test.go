package service

import (
	"context"
	"testing"

	"examcell_backend/internal/qbank"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type adminServices struct {
	db          *gorm.DB
	fx          fixture
	academic    *AcademicService
	regulations *RegulationService
	offerings   *CourseOfferingService
	config      *ConfigurationService
}

func newAdminServices(t *testing.T) *adminServices {
	t.Helper()
	db := openTestDB(t)
	fx := seedFixture(t, db)
	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	programRepo := repository.NewProgramRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	regRepo := repository.NewRegulationRepository(db)
	offeringRepo := repository.NewCourseOfferingRepository(db)
	return &adminServices{
		db:          db,
		fx:          fx,
		academic:    NewAcademicService(deptRepo, programRepo, courseRepo, offeringRepo, userRepo),
		regulations: NewRegulationService(regRepo, offeringRepo),
		offerings:   NewCourseOfferingService(offeringRepo, deptRepo, courseRepo, programRepo, regRepo, userRepo),
		config:      NewConfigurationService(offeringRepo, regRepo),
	}
}

func TestDepartmentCRUD(t *testing.T) {
	s := newAdminServices(t)
	reviewer := s.fx.other.ID

	d, err := s.academic.CreateDepartment(DepartmentInput{DepartmentName: " Electrical ", Abbreviation: "EEE", ReviewerID: &reviewer})
	require.NoError(t, err)
	assert.Equal(t, "Electrical", d.DepartmentName)
	require.NotNil(t, d.Reviewer)
	assert.Equal(t, "Other", d.Reviewer.Name)

	missing := uint(999)
	_, err = s.academic.UpdateDepartment(d.ID, DepartmentInput{DepartmentName: "Electrical", ReviewerID: &missing})
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	d, err = s.academic.UpdateDepartment(d.ID, DepartmentInput{DepartmentName: "Electrical Engg"})
	require.NoError(t, err)
	assert.Nil(t, d.ReviewerID)

	opts, err := s.academic.DepartmentDropdown()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	require.NoError(t, s.academic.DeleteDepartment(d.ID))
	_, err = s.academic.GetDepartment(d.ID)
	assert.ErrorIs(t, err, util.ErrRecordNotFound)
	assert.ErrorIs(t, s.academic.DeleteDepartment(d.ID), util.ErrRecordNotFound)
}

func TestReferencedRecordsCannotBeDeleted(t *testing.T) {
	s := newAdminServices(t)
	o := s.fx.offering

	assert.ErrorIs(t, s.academic.DeleteDepartment(o.DepartmentID), util.ErrRecordInUse)
	assert.ErrorIs(t, s.academic.DeleteCourse(o.CourseID), util.ErrRecordInUse)
	assert.ErrorIs(t, s.academic.DeleteProgram(o.ProgramID), util.ErrRecordInUse)
	assert.ErrorIs(t, s.regulations.Delete(o.RegulationID), util.ErrRecordInUse)

	require.NoError(t, s.offerings.Delete(o.ID))
	assert.NoError(t, s.academic.DeleteCourse(o.CourseID))
}

func TestCourseCodeIsNormalized(t *testing.T) {
	s := newAdminServices(t)
	c, err := s.academic.CreateCourse(CourseInput{CourseCode: " ee201 ", CourseTitle: "Circuits", Credits: 3})
	require.NoError(t, err)
	assert.Equal(t, "EE201", c.CourseCode)

	_, err = s.academic.CreateCourse(CourseInput{CourseCode: "cs101", CourseTitle: "Dup"})
	assert.ErrorIs(t, err, util.ErrDuplicateRecord)

	opts, err := s.academic.CourseDropdown()
	require.NoError(t, err)
	labels := make([]string, 0, len(opts))
	for _, o := range opts {
		labels = append(labels, o.Label)
	}
	assert.Contains(t, labels, "EE201 - Circuits")
}

func TestRegulationSectionRules(t *testing.T) {
	s := newAdminServices(t)

	_, err := s.regulations.Create(RegulationInput{
		RegulationName: "R23",
		SectionRules:   []SectionRuleInput{{SectionName: "Part A", Marks: 0, MinQuestionsCount: 5}},
	})
	assert.ErrorIs(t, err, util.ErrInvalidSectionRules)

	reg, err := s.regulations.Create(RegulationInput{
		RegulationName: "R23",
		SectionRules: []SectionRuleInput{
			{SectionName: "Short", Marks: 2, MinQuestionsCount: 5},
			{SectionName: "Long", Marks: 16, MinQuestionsCount: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, reg.SectionRules, 2)
	assert.Equal(t, "Short", reg.SectionRules[0].SectionName)
	assert.Equal(t, 2, reg.SectionRules[1].Order)

	reg, err = s.regulations.Update(reg.ID, RegulationInput{
		RegulationName: "R23",
		SectionRules:   []SectionRuleInput{{SectionName: "Only", Marks: 5, MinQuestionsCount: 3}},
	})
	require.NoError(t, err)
	require.Len(t, reg.SectionRules, 1)
	assert.Equal(t, "Only", reg.SectionRules[0].SectionName)

	require.NoError(t, s.regulations.Delete(reg.ID))
	_, err = s.regulations.Get(reg.ID)
	assert.ErrorIs(t, err, util.ErrRecordNotFound)
}

func offeringInput(fx fixture) CourseOfferingInput {
	o := fx.offering
	return CourseOfferingInput{
		AcademicYear:  "2025-26",
		Semester:      "II",
		YearOfStudy:   "II",
		DepartmentID:  o.DepartmentID,
		CourseID:      o.CourseID,
		ProgramID:     o.ProgramID,
		RegulationID:  o.RegulationID,
		InstructorIDs: []uint{fx.faculty.ID, fx.other.ID},
		Modules: []ModuleInput{
			{ModuleNo: 1, ModuleName: "Intro"},
			{ModuleNo: 2, ModuleName: "Arrays"},
			{ModuleNo: 3, ModuleName: "Pointers"},
		},
	}
}

func TestCourseOfferingValidation(t *testing.T) {
	s := newAdminServices(t)

	in := offeringInput(s.fx)
	in.Modules = []ModuleInput{{ModuleNo: 1}, {ModuleNo: 1}}
	_, err := s.offerings.Create(in)
	assert.ErrorIs(t, err, util.ErrDuplicateModuleNumbers)

	in = offeringInput(s.fx)
	in.Modules = []ModuleInput{{ModuleNo: 0}}
	_, err = s.offerings.Create(in)
	assert.ErrorIs(t, err, util.ErrInvalidModuleNumber)

	in = offeringInput(s.fx)
	in.CourseID = 999
	_, err = s.offerings.Create(in)
	assert.ErrorIs(t, err, util.ErrRecordNotFound)

	in = offeringInput(s.fx)
	in.InstructorIDs = []uint{s.fx.faculty.ID, 999}
	_, err = s.offerings.Create(in)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestCourseOfferingUpdateFeedsConfiguration(t *testing.T) {
	s := newAdminServices(t)
	o := s.fx.offering

	updated, err := s.offerings.Update(o.ID, offeringInput(s.fx))
	require.NoError(t, err)
	assert.Len(t, updated.Instructors, 2)
	assert.Len(t, updated.Modules, 3)

	page, err := s.offerings.List(1, 10, 0, s.fx.other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	sel := s.fx.selection()
	req, err := sel.Request()
	require.NoError(t, err)
	resp, err := s.config.FetchConfiguration(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.ModulesInfo, 3)
	assert.Equal(t, qbank.ModuleInfo{ModuleNo: 3, ModuleName: "Pointers"}, resp.ModulesInfo[2])
	require.Len(t, resp.SectionsRules, 2)
	assert.Equal(t, qbank.SectionRule{SectionName: "Part B", Marks: 10, MinQuestionsCount: 1}, resp.SectionsRules[1])
}

func TestConfigurationNotFound(t *testing.T) {
	s := newAdminServices(t)

	_, err := s.config.FetchConfiguration(context.Background(), qbank.ConfigurationRequest{DepartmentID: 1})
	assert.ErrorIs(t, err, util.ErrConfigurationNotFound)

	req, err := s.fx.selection().Request()
	require.NoError(t, err)
	req.ProgramID = 42
	_, err = s.config.FetchConfiguration(context.Background(), req)
	assert.ErrorIs(t, err, util.ErrConfigurationNotFound)
}
