package repository

import (
	"examcell_backend/internal/model"

	"gorm.io/gorm"
)

type RegulationRepository struct {
	DB *gorm.DB
}

func NewRegulationRepository(db *gorm.DB) *RegulationRepository {
	return &RegulationRepository{DB: db}
}

func orderedRules(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

func (r *RegulationRepository) Create(reg *model.Regulation) error {
	return r.DB.Create(reg).Error
}

func (r *RegulationRepository) FindByID(id uint) (*model.Regulation, error) {
	var reg model.Regulation
	err := r.DB.Preload("SectionRules", orderedRules).First(&reg, id).Error
	return &reg, err
}

func (r *RegulationRepository) FindWithPagination(offset, limit int, search string) ([]model.Regulation, int64, error) {
	var list []model.Regulation
	var total int64
	query := r.DB.Model(&model.Regulation{})
	if search != "" {
		query = query.Where("regulation_name LIKE ?", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("SectionRules", orderedRules).Order("regulation_name ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, total, err
}

func (r *RegulationRepository) FindAll() ([]model.Regulation, error) {
	var list []model.Regulation
	err := r.DB.Order("regulation_name ASC").Find(&list).Error
	return list, err
}

// Update 整体替换分节规则
func (r *RegulationRepository) Update(reg *model.Regulation) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("SectionRules").Save(reg).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("regulation_id = ?", reg.ID).Delete(&model.SectionRule{}).Error; err != nil {
			return err
		}
		for i := range reg.SectionRules {
			reg.SectionRules[i].ID = 0
			reg.SectionRules[i].RegulationID = reg.ID
		}
		if len(reg.SectionRules) == 0 {
			return nil
		}
		return tx.Create(&reg.SectionRules).Error
	})
}

func (r *RegulationRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("regulation_id = ?", id).Delete(&model.SectionRule{}).Error; err != nil {
			return err
		}
		return deleteByID(tx, &model.Regulation{}, id)
	})
}
