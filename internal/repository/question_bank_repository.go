package repository

import (
	"examcell_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type QuestionBankRepository struct {
	DB *gorm.DB
}

func NewQuestionBankRepository(db *gorm.DB) *QuestionBankRepository {
	return &QuestionBankRepository{DB: db}
}

// QuestionBankFilter 为零值的字段不参与过滤
type QuestionBankFilter struct {
	FacultyID    uint
	DepartmentID uint
	Status       model.ReviewStatus
}

func (f QuestionBankFilter) apply(db *gorm.DB) *gorm.DB {
	if f.FacultyID != 0 {
		db = db.Where("faculty_id = ?", f.FacultyID)
	}
	if f.DepartmentID != 0 {
		db = db.Where("department_id = ?", f.DepartmentID)
	}
	if f.Status != "" {
		db = db.Where("review_status = ?", f.Status)
	}
	return db
}

func (r *QuestionBankRepository) Create(qb *model.QuestionBank) error {
	return r.DB.Omit("CourseOffering", "Faculty").Create(qb).Error
}

func (r *QuestionBankRepository) FindByID(id string) (*model.QuestionBank, error) {
	var qb model.QuestionBank
	err := r.DB.Preload("Faculty").
		Preload("CourseOffering").
		Preload("CourseOffering.Course").
		Preload("CourseOffering.Department").
		Preload("CourseOffering.Program").
		Preload("CourseOffering.Regulation").
		Preload("CourseOffering.Instructors").
		Where("id = ?", id).
		First(&qb).Error
	return &qb, err
}

// FindWithPagination 列表不返回树内容
func (r *QuestionBankRepository) FindWithPagination(offset, limit int, filter QuestionBankFilter) ([]model.QuestionBank, int64, error) {
	var list []model.QuestionBank
	var total int64
	query := filter.apply(r.DB.Model(&model.QuestionBank{}))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Omit("tree").
		Preload("Faculty").
		Preload("CourseOffering.Course").
		Order("submitted_at DESC").
		Offset(offset).Limit(limit).
		Find(&list).Error
	return list, total, err
}

// Review 只有待审核状态可以变更，返回是否更新成功
func (r *QuestionBankRepository) Review(id string, status model.ReviewStatus, comment string, reviewerID uint) (bool, error) {
	now := time.Now()
	res := r.DB.Model(&model.QuestionBank{}).
		Where("id = ? AND review_status = ?", id, model.ReviewPending).
		Updates(map[string]interface{}{
			"review_status": status,
			"comment":       comment,
			"reviewer_id":   reviewerID,
			"reviewed_at":   &now,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *QuestionBankRepository) Stats(filter QuestionBankFilter) (*model.QuestionBankStats, error) {
	type row struct {
		ReviewStatus model.ReviewStatus
		Count        int64
	}
	var rows []row
	filter.Status = ""
	err := filter.apply(r.DB.Model(&model.QuestionBank{})).
		Select("review_status, COUNT(*) AS count").
		Group("review_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := &model.QuestionBankStats{}
	for _, rw := range rows {
		stats.Total += rw.Count
		switch rw.ReviewStatus {
		case model.ReviewPending:
			stats.Pending = rw.Count
		case model.ReviewAccepted:
			stats.Accepted = rw.Count
		case model.ReviewRejected:
			stats.Rejected = rw.Count
		}
	}
	return stats, nil
}
