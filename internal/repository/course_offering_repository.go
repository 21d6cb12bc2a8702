package repository

import (
	"examcell_backend/internal/model"

	"gorm.io/gorm"
)

type CourseOfferingRepository struct {
	DB *gorm.DB
}

func NewCourseOfferingRepository(db *gorm.DB) *CourseOfferingRepository {
	return &CourseOfferingRepository{DB: db}
}

func orderedModules(db *gorm.DB) *gorm.DB {
	return db.Order("module_no ASC")
}

func (r *CourseOfferingRepository) preload(db *gorm.DB) *gorm.DB {
	return db.Preload("Department").
		Preload("Course").
		Preload("Program").
		Preload("Regulation").
		Preload("Submitter").
		Preload("Instructors").
		Preload("Modules", orderedModules)
}

func (r *CourseOfferingRepository) Create(o *model.CourseOffering) error {
	return r.DB.Omit("Department", "Course", "Program", "Regulation", "Submitter").Create(o).Error
}

func (r *CourseOfferingRepository) FindByID(id uint) (*model.CourseOffering, error) {
	var o model.CourseOffering
	err := r.preload(r.DB).First(&o, id).Error
	return &o, err
}

// FindWithPagination instructorID 非 0 时只返回该教师负责的课程
func (r *CourseOfferingRepository) FindWithPagination(offset, limit int, departmentID, instructorID uint) ([]model.CourseOffering, int64, error) {
	var list []model.CourseOffering
	var total int64
	query := r.DB.Model(&model.CourseOffering{})
	if departmentID != 0 {
		query = query.Where("department_id = ?", departmentID)
	}
	if instructorID != 0 {
		query = query.Where("id IN (?)", r.DB.Table("course_offering_instructors").
			Select("course_offering_id").
			Where("user_id = ?", instructorID))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.preload(query).Order("id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

// FindBySelection 题库配置按 (院系, 课程, 专业, 法规) 定位课程开设
func (r *CourseOfferingRepository) FindBySelection(departmentID, courseID, programID, regulationID uint) (*model.CourseOffering, error) {
	var o model.CourseOffering
	err := r.DB.Preload("Modules", orderedModules).
		Where("department_id = ? AND course_id = ? AND program_id = ? AND regulation_id = ?",
			departmentID, courseID, programID, regulationID).
		First(&o).Error
	return &o, err
}

// Update 整体替换模块信息和授课教师
func (r *CourseOfferingRepository) Update(o *model.CourseOffering) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Department", "Course", "Program", "Regulation", "Submitter", "Instructors", "Modules").Save(o).Error; err != nil {
			return err
		}
		if err := tx.Model(o).Association("Instructors").Replace(o.Instructors); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("course_offering_id = ?", o.ID).Delete(&model.ModuleInfo{}).Error; err != nil {
			return err
		}
		for i := range o.Modules {
			o.Modules[i].ID = 0
			o.Modules[i].CourseOfferingID = o.ID
		}
		if len(o.Modules) == 0 {
			return nil
		}
		return tx.Create(&o.Modules).Error
	})
}

func (r *CourseOfferingRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		o := &model.CourseOffering{}
		o.ID = id
		if err := tx.Model(o).Association("Instructors").Clear(); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("course_offering_id = ?", id).Delete(&model.ModuleInfo{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &model.CourseOffering{}, id)
	})
}

// CountReferencing 删除院系/课程/专业/法规前检查引用
func (r *CourseOfferingRepository) CountReferencing(column string, id uint) (int64, error) {
	var n int64
	err := r.DB.Model(&model.CourseOffering{}).Where(column+" = ?", id).Count(&n).Error
	return n, err
}

// FindAllForDropdown 只加载课程信息
func (r *CourseOfferingRepository) FindAllForDropdown() ([]model.CourseOffering, error) {
	var list []model.CourseOffering
	err := r.DB.Preload("Course").Order("id DESC").Find(&list).Error
	return list, err
}
