package repository

import (
	"examcell_backend/internal/model"

	"gorm.io/gorm"
)

type DepartmentRepository struct {
	DB *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{DB: db}
}

func (r *DepartmentRepository) Create(d *model.Department) error {
	return r.DB.Create(d).Error
}

func (r *DepartmentRepository) FindByID(id uint) (*model.Department, error) {
	var d model.Department
	err := r.DB.Preload("Reviewer").First(&d, id).Error
	return &d, err
}

func (r *DepartmentRepository) FindWithPagination(offset, limit int, search string) ([]model.Department, int64, error) {
	var list []model.Department
	var total int64
	query := r.DB.Model(&model.Department{})
	if search != "" {
		query = query.Where("department_name LIKE ? OR abbreviation LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Reviewer").Order("department_name ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *DepartmentRepository) FindAll() ([]model.Department, error) {
	var list []model.Department
	err := r.DB.Order("department_name ASC").Find(&list).Error
	return list, err
}

func (r *DepartmentRepository) Update(d *model.Department) error {
	return r.DB.Omit("Reviewer").Save(d).Error
}

func (r *DepartmentRepository) Delete(id uint) error {
	return deleteByID(r.DB, &model.Department{}, id)
}

type ProgramRepository struct {
	DB *gorm.DB
}

func NewProgramRepository(db *gorm.DB) *ProgramRepository {
	return &ProgramRepository{DB: db}
}

func (r *ProgramRepository) Create(p *model.Program) error {
	return r.DB.Create(p).Error
}

func (r *ProgramRepository) FindByID(id uint) (*model.Program, error) {
	var p model.Program
	err := r.DB.First(&p, id).Error
	return &p, err
}

func (r *ProgramRepository) FindWithPagination(offset, limit int, search string) ([]model.Program, int64, error) {
	var list []model.Program
	var total int64
	query := r.DB.Model(&model.Program{})
	if search != "" {
		query = query.Where("program_name LIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("program_name ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *ProgramRepository) FindAll() ([]model.Program, error) {
	var list []model.Program
	err := r.DB.Order("program_name ASC").Find(&list).Error
	return list, err
}

func (r *ProgramRepository) Update(p *model.Program) error {
	return r.DB.Save(p).Error
}

func (r *ProgramRepository) Delete(id uint) error {
	return deleteByID(r.DB, &model.Program{}, id)
}

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(c *model.Course) error {
	return r.DB.Create(c).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var c model.Course
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *CourseRepository) FindWithPagination(offset, limit int, search string) ([]model.Course, int64, error) {
	var list []model.Course
	var total int64
	query := r.DB.Model(&model.Course{})
	if search != "" {
		query = query.Where("course_code LIKE ? OR course_title LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("course_code ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *CourseRepository) FindAll() ([]model.Course, error) {
	var list []model.Course
	err := r.DB.Order("course_code ASC").Find(&list).Error
	return list, err
}

func (r *CourseRepository) Update(c *model.Course) error {
	return r.DB.Save(c).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return deleteByID(r.DB, &model.Course{}, id)
}

func deleteByID(db *gorm.DB, value interface{}, id uint) error {
	res := db.Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
