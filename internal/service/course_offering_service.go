package service

import (
	"strings"

	"examcell_backend/internal/model"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
)

type ModuleInput struct {
	ModuleNo   int    `json:"moduleNo" binding:"gt=0"`
	ModuleName string `json:"moduleName"`
}

type CourseOfferingInput struct {
	AcademicYear  string        `json:"academicYear"`
	Semester      string        `json:"semester"`
	YearOfStudy   string        `json:"yearOfStudy"`
	DepartmentID  uint          `json:"departmentId" binding:"required"`
	CourseID      uint          `json:"courseId" binding:"required"`
	ProgramID     uint          `json:"programId" binding:"required"`
	RegulationID  uint          `json:"regulationId" binding:"required"`
	SubmitterID   *uint         `json:"submitterId"`
	InstructorIDs []uint        `json:"instructorIds"`
	Modules       []ModuleInput `json:"modules" binding:"dive"`
}

// CourseOfferingService 课程开设维护，模块信息即题库配置中的 modules_info
type CourseOfferingService struct {
	OfferingRepo   *repository.CourseOfferingRepository
	DepartmentRepo *repository.DepartmentRepository
	CourseRepo     *repository.CourseRepository
	ProgramRepo    *repository.ProgramRepository
	RegulationRepo *repository.RegulationRepository
	UserRepo       *repository.UserRepository
}

func NewCourseOfferingService(
	offeringRepo *repository.CourseOfferingRepository,
	departmentRepo *repository.DepartmentRepository,
	courseRepo *repository.CourseRepository,
	programRepo *repository.ProgramRepository,
	regulationRepo *repository.RegulationRepository,
	userRepo *repository.UserRepository,
) *CourseOfferingService {
	return &CourseOfferingService{
		OfferingRepo:   offeringRepo,
		DepartmentRepo: departmentRepo,
		CourseRepo:     courseRepo,
		ProgramRepo:    programRepo,
		RegulationRepo: regulationRepo,
		UserRepo:       userRepo,
	}
}

func moduleInfos(in []ModuleInput) ([]model.ModuleInfo, error) {
	seen := make(map[int]bool, len(in))
	modules := make([]model.ModuleInfo, 0, len(in))
	for _, m := range in {
		if m.ModuleNo <= 0 {
			return nil, util.ErrInvalidModuleNumber
		}
		if seen[m.ModuleNo] {
			return nil, util.ErrDuplicateModuleNumbers
		}
		seen[m.ModuleNo] = true
		modules = append(modules, model.ModuleInfo{
			ModuleNo:   m.ModuleNo,
			ModuleName: strings.TrimSpace(m.ModuleName),
		})
	}
	return modules, nil
}

// checkReferences 引用的院系、课程、专业、法规必须存在
func (s *CourseOfferingService) checkReferences(in CourseOfferingInput) error {
	if _, err := s.DepartmentRepo.FindByID(in.DepartmentID); err != nil {
		return translateError(err, util.ErrRecordNotFound)
	}
	if _, err := s.CourseRepo.FindByID(in.CourseID); err != nil {
		return translateError(err, util.ErrRecordNotFound)
	}
	if _, err := s.ProgramRepo.FindByID(in.ProgramID); err != nil {
		return translateError(err, util.ErrRecordNotFound)
	}
	if _, err := s.RegulationRepo.FindByID(in.RegulationID); err != nil {
		return translateError(err, util.ErrRecordNotFound)
	}
	if in.SubmitterID != nil {
		if _, err := s.UserRepo.FindByID(*in.SubmitterID); err != nil {
			return translateError(err, util.ErrUserNotFound)
		}
	}
	return nil
}

func (s *CourseOfferingService) instructors(ids []uint) ([]model.User, error) {
	users, err := s.UserRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(uniqueIDs(ids)) {
		return nil, util.ErrUserNotFound
	}
	return users, nil
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s *CourseOfferingService) apply(o *model.CourseOffering, in CourseOfferingInput) error {
	if err := s.checkReferences(in); err != nil {
		return err
	}
	modules, err := moduleInfos(in.Modules)
	if err != nil {
		return err
	}
	users, err := s.instructors(in.InstructorIDs)
	if err != nil {
		return err
	}
	o.AcademicYear = strings.TrimSpace(in.AcademicYear)
	o.Semester = strings.TrimSpace(in.Semester)
	o.YearOfStudy = strings.TrimSpace(in.YearOfStudy)
	o.DepartmentID = in.DepartmentID
	o.CourseID = in.CourseID
	o.ProgramID = in.ProgramID
	o.RegulationID = in.RegulationID
	o.SubmitterID = in.SubmitterID
	o.Instructors = users
	o.Modules = modules
	return nil
}

// List instructorID 非 0 时只返回该教师负责的课程
func (s *CourseOfferingService) List(page, limit int, departmentID, instructorID uint) (*util.PageResponse, error) {
	page, limit, offset := pageBounds(page, limit)
	list, total, err := s.OfferingRepo.FindWithPagination(offset, limit, departmentID, instructorID)
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *CourseOfferingService) Get(id uint) (*model.CourseOffering, error) {
	o, err := s.OfferingRepo.FindByID(id)
	if err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return o, nil
}

func (s *CourseOfferingService) Create(in CourseOfferingInput) (*model.CourseOffering, error) {
	o := &model.CourseOffering{}
	if err := s.apply(o, in); err != nil {
		return nil, err
	}
	if err := s.OfferingRepo.Create(o); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return s.Get(o.ID)
}

func (s *CourseOfferingService) Update(id uint, in CourseOfferingInput) (*model.CourseOffering, error) {
	o, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(o, in); err != nil {
		return nil, err
	}
	if err := s.OfferingRepo.Update(o); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return s.Get(id)
}

func (s *CourseOfferingService) Delete(id uint) error {
	return translateError(s.OfferingRepo.Delete(id), util.ErrRecordNotFound)
}

// Dropdown 标签形如 "CS101 - Programming (2024-25 I)"
func (s *CourseOfferingService) Dropdown() ([]model.DropdownOption, error) {
	list, err := s.OfferingRepo.FindAllForDropdown()
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(list))
	for _, o := range list {
		label := o.Course.CourseCode + " - " + o.Course.CourseTitle
		if term := strings.TrimSpace(o.AcademicYear + " " + o.Semester); term != "" {
			label += " (" + term + ")"
		}
		opts = append(opts, model.DropdownOption{ID: o.ID, Label: label})
	}
	return opts, nil
}
