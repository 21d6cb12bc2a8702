package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"examcell_backend/internal/model"
	"examcell_backend/internal/qbank"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
	"examcell_backend/pkg/logger"
	"examcell_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService 已提交题库的查询、审核与试卷导出
type ReviewService struct {
	BankRepo        *repository.QuestionBankRepository
	DeptRepo        *repository.DepartmentRepository
	Renderer        qbank.DocumentRenderer
	InstitutionName string
}

func NewReviewService(bankRepo *repository.QuestionBankRepository, deptRepo *repository.DepartmentRepository, renderer qbank.DocumentRenderer, institutionName string) *ReviewService {
	return &ReviewService{
		BankRepo:        bankRepo,
		DeptRepo:        deptRepo,
		Renderer:        renderer,
		InstitutionName: institutionName,
	}
}

// scope 教师只能看到自己提交的题库
func scope(actor Actor, canReview bool, filter repository.QuestionBankFilter) repository.QuestionBankFilter {
	if !actor.Admin && !canReview {
		filter.FacultyID = actor.UserID
	}
	return filter
}

func (s *ReviewService) List(actor Actor, canReview bool, page, limit int, filter repository.QuestionBankFilter) ([]model.QuestionBank, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.BankRepo.FindWithPagination((page-1)*limit, limit, scope(actor, canReview, filter))
}

func (s *ReviewService) Stats(actor Actor, canReview bool, filter repository.QuestionBankFilter) (*model.QuestionBankStats, error) {
	return s.BankRepo.Stats(scope(actor, canReview, filter))
}

func (s *ReviewService) Get(actor Actor, canReview bool, id string) (*model.QuestionBank, error) {
	qb, err := s.BankRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuestionBankNotFound
		}
		return nil, err
	}
	if !actor.Admin && !canReview && qb.FacultyID != actor.UserID {
		return nil, util.ErrPermissionDenied
	}
	return qb, nil
}

func (s *ReviewService) Accept(actor Actor, id string) (*model.QuestionBank, error) {
	return s.review(actor, id, model.ReviewAccepted, "")
}

// Reject 必须填写退回意见
func (s *ReviewService) Reject(actor Actor, id, comment string) (*model.QuestionBank, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, util.ErrCommentRequired
	}
	return s.review(actor, id, model.ReviewRejected, comment)
}

// checkDepartmentReviewer 院系指定了审核人时只有该审核人（或管理员）可以审核
func (s *ReviewService) checkDepartmentReviewer(actor Actor, qb *model.QuestionBank) error {
	if actor.Admin || s.DeptRepo == nil {
		return nil
	}
	dept, err := s.DeptRepo.FindByID(qb.DepartmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("find department %d: %w", qb.DepartmentID, err)
	}
	if dept.ReviewerID != nil && *dept.ReviewerID != actor.UserID {
		return util.ErrPermissionDenied
	}
	return nil
}

func (s *ReviewService) review(actor Actor, id string, status model.ReviewStatus, comment string) (*model.QuestionBank, error) {
	qb, err := s.Get(actor, true, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkDepartmentReviewer(actor, qb); err != nil {
		return nil, err
	}
	ok, err := s.BankRepo.Review(id, status, comment, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("review question bank: %w", err)
	}
	if !ok {
		return nil, util.ErrAlreadyReviewed
	}
	monitoring.Reviews.WithLabelValues(string(status)).Inc()
	logger.Log.Info("Question bank reviewed",
		zap.String("questionBankId", id),
		zap.String("status", string(status)),
		zap.Uint("reviewerId", actor.UserID),
	)
	return s.Get(actor, true, id)
}

// Paper 把题库树拼成试卷；limits 以分值为键限制每节题数
func (s *ReviewService) Paper(actor Actor, canReview bool, id string, limits map[int]int) (*qbank.Paper, *model.QuestionBank, error) {
	qb, err := s.Get(actor, canReview, id)
	if err != nil {
		return nil, nil, err
	}
	tree := qbank.NewTree()
	if err := json.Unmarshal(qb.Tree, tree); err != nil {
		return nil, nil, fmt.Errorf("decode question bank %s: %w", id, err)
	}
	return qbank.Flatten(tree, s.header(qb), limits), qb, nil
}

func (s *ReviewService) header(qb *model.QuestionBank) qbank.PaperHeader {
	h := qbank.PaperHeader{InstitutionName: s.InstitutionName}
	o := qb.CourseOffering
	if o == nil {
		if qb.Faculty.Name != "" {
			h.Faculty = []string{qb.Faculty.Name}
		}
		return h
	}
	h.CourseCode = o.Course.CourseCode
	h.CourseTitle = o.Course.CourseTitle
	h.Credits = o.Course.Credits
	h.YearOfStudy = o.YearOfStudy
	h.Semester = o.Semester
	h.AcademicYear = o.AcademicYear
	h.Regulation = o.Regulation.RegulationName
	h.Department = o.Department.DepartmentName
	h.Program = o.Program.ProgramName
	for _, u := range o.Instructors {
		h.Faculty = append(h.Faculty, u.Name)
	}
	return h
}

// ExportFilename <course_code>_Question_Bank.xlsx，缺少课程代码时使用题库ID
func (s *ReviewService) ExportFilename(p *qbank.Paper, id string) string {
	code := strings.TrimSpace(p.Header.CourseCode)
	if code == "" {
		code = id
	}
	return code + "_Question_Bank" + s.Renderer.FileExtension()
}

// Export 渲染到 w，返回下载文件名
func (s *ReviewService) Export(actor Actor, canReview bool, id string, limits map[int]int, w io.Writer) (string, error) {
	p, _, err := s.Paper(actor, canReview, id, limits)
	if err != nil {
		return "", err
	}
	if err := s.Renderer.Render(w, p); err != nil {
		return "", fmt.Errorf("render question bank %s: %w", id, err)
	}
	return s.ExportFilename(p, id), nil
}
