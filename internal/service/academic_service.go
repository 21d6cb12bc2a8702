package service

import (
	"strings"

	"examcell_backend/internal/model"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
)

type DepartmentInput struct {
	DepartmentName string `json:"departmentName" binding:"required,max=128"`
	Abbreviation   string `json:"abbreviation" binding:"max=32"`
	ReviewerID     *uint  `json:"reviewerId"`
}

type ProgramInput struct {
	ProgramName string `json:"programName" binding:"required,max=128"`
}

type CourseInput struct {
	CourseCode  string  `json:"courseCode" binding:"required,max=32"`
	CourseTitle string  `json:"courseTitle" binding:"required,max=255"`
	Credits     float64 `json:"credits" binding:"gte=0"`
}

// AcademicService 院系、专业、课程的维护；被课程开设引用的记录不能删除
type AcademicService struct {
	DepartmentRepo *repository.DepartmentRepository
	ProgramRepo    *repository.ProgramRepository
	CourseRepo     *repository.CourseRepository
	OfferingRepo   *repository.CourseOfferingRepository
	UserRepo       *repository.UserRepository
}

func NewAcademicService(
	departmentRepo *repository.DepartmentRepository,
	programRepo *repository.ProgramRepository,
	courseRepo *repository.CourseRepository,
	offeringRepo *repository.CourseOfferingRepository,
	userRepo *repository.UserRepository,
) *AcademicService {
	return &AcademicService{
		DepartmentRepo: departmentRepo,
		ProgramRepo:    programRepo,
		CourseRepo:     courseRepo,
		OfferingRepo:   offeringRepo,
		UserRepo:       userRepo,
	}
}

func (s *AcademicService) ensureUnreferenced(column string, id uint) error {
	n, err := s.OfferingRepo.CountReferencing(column, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return util.ErrRecordInUse
	}
	return nil
}

func (s *AcademicService) checkReviewer(id *uint) error {
	if id == nil {
		return nil
	}
	_, err := s.UserRepo.FindByID(*id)
	return translateError(err, util.ErrUserNotFound)
}

// 院系

func (s *AcademicService) ListDepartments(page, limit int, search string) (*util.PageResponse, error) {
	page, limit, offset := pageBounds(page, limit)
	list, total, err := s.DepartmentRepo.FindWithPagination(offset, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *AcademicService) GetDepartment(id uint) (*model.Department, error) {
	d, err := s.DepartmentRepo.FindByID(id)
	if err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return d, nil
}

func (s *AcademicService) CreateDepartment(in DepartmentInput) (*model.Department, error) {
	if err := s.checkReviewer(in.ReviewerID); err != nil {
		return nil, err
	}
	d := &model.Department{
		DepartmentName: strings.TrimSpace(in.DepartmentName),
		Abbreviation:   strings.TrimSpace(in.Abbreviation),
		ReviewerID:     in.ReviewerID,
	}
	if err := s.DepartmentRepo.Create(d); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return s.GetDepartment(d.ID)
}

func (s *AcademicService) UpdateDepartment(id uint, in DepartmentInput) (*model.Department, error) {
	d, err := s.GetDepartment(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkReviewer(in.ReviewerID); err != nil {
		return nil, err
	}
	d.DepartmentName = strings.TrimSpace(in.DepartmentName)
	d.Abbreviation = strings.TrimSpace(in.Abbreviation)
	d.ReviewerID = in.ReviewerID
	d.Reviewer = nil
	if err := s.DepartmentRepo.Update(d); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return s.GetDepartment(id)
}

func (s *AcademicService) DeleteDepartment(id uint) error {
	if err := s.ensureUnreferenced("department_id", id); err != nil {
		return err
	}
	return translateError(s.DepartmentRepo.Delete(id), util.ErrRecordNotFound)
}

func (s *AcademicService) DepartmentDropdown() ([]model.DropdownOption, error) {
	list, err := s.DepartmentRepo.FindAll()
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(list))
	for _, d := range list {
		opts = append(opts, model.DropdownOption{ID: d.ID, Label: d.DepartmentName})
	}
	return opts, nil
}

// 专业

func (s *AcademicService) ListPrograms(page, limit int, search string) (*util.PageResponse, error) {
	page, limit, offset := pageBounds(page, limit)
	list, total, err := s.ProgramRepo.FindWithPagination(offset, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *AcademicService) GetProgram(id uint) (*model.Program, error) {
	p, err := s.ProgramRepo.FindByID(id)
	if err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return p, nil
}

func (s *AcademicService) CreateProgram(in ProgramInput) (*model.Program, error) {
	p := &model.Program{ProgramName: strings.TrimSpace(in.ProgramName)}
	if err := s.ProgramRepo.Create(p); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return p, nil
}

func (s *AcademicService) UpdateProgram(id uint, in ProgramInput) (*model.Program, error) {
	p, err := s.GetProgram(id)
	if err != nil {
		return nil, err
	}
	p.ProgramName = strings.TrimSpace(in.ProgramName)
	if err := s.ProgramRepo.Update(p); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return p, nil
}

func (s *AcademicService) DeleteProgram(id uint) error {
	if err := s.ensureUnreferenced("program_id", id); err != nil {
		return err
	}
	return translateError(s.ProgramRepo.Delete(id), util.ErrRecordNotFound)
}

func (s *AcademicService) ProgramDropdown() ([]model.DropdownOption, error) {
	list, err := s.ProgramRepo.FindAll()
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(list))
	for _, p := range list {
		opts = append(opts, model.DropdownOption{ID: p.ID, Label: p.ProgramName})
	}
	return opts, nil
}

// 课程

func (s *AcademicService) ListCourses(page, limit int, search string) (*util.PageResponse, error) {
	page, limit, offset := pageBounds(page, limit)
	list, total, err := s.CourseRepo.FindWithPagination(offset, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *AcademicService) GetCourse(id uint) (*model.Course, error) {
	c, err := s.CourseRepo.FindByID(id)
	if err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return c, nil
}

func (s *AcademicService) CreateCourse(in CourseInput) (*model.Course, error) {
	c := &model.Course{
		CourseCode:  strings.ToUpper(strings.TrimSpace(in.CourseCode)),
		CourseTitle: strings.TrimSpace(in.CourseTitle),
		Credits:     in.Credits,
	}
	if err := s.CourseRepo.Create(c); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return c, nil
}

func (s *AcademicService) UpdateCourse(id uint, in CourseInput) (*model.Course, error) {
	c, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}
	c.CourseCode = strings.ToUpper(strings.TrimSpace(in.CourseCode))
	c.CourseTitle = strings.TrimSpace(in.CourseTitle)
	c.Credits = in.Credits
	if err := s.CourseRepo.Update(c); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return c, nil
}

func (s *AcademicService) DeleteCourse(id uint) error {
	if err := s.ensureUnreferenced("course_id", id); err != nil {
		return err
	}
	return translateError(s.CourseRepo.Delete(id), util.ErrRecordNotFound)
}

// CourseDropdown 标签形如 "CS101 - Programming"
func (s *AcademicService) CourseDropdown() ([]model.DropdownOption, error) {
	list, err := s.CourseRepo.FindAll()
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(list))
	for _, c := range list {
		opts = append(opts, model.DropdownOption{ID: c.ID, Label: c.CourseCode + " - " + c.CourseTitle})
	}
	return opts, nil
}
