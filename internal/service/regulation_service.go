package service

import (
	"strings"

	"examcell_backend/internal/model"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
)

type SectionRuleInput struct {
	SectionName       string `json:"sectionName"`
	Marks             int    `json:"marks"`
	MinQuestionsCount int    `json:"minQuestionsCount"`
}

// RegulationInput 分节规则按数组顺序保存
type RegulationInput struct {
	RegulationName string             `json:"regulationName" binding:"required,max=64"`
	SectionRules   []SectionRuleInput `json:"sectionRules"`
}

type RegulationService struct {
	RegulationRepo *repository.RegulationRepository
	OfferingRepo   *repository.CourseOfferingRepository
}

func NewRegulationService(regulationRepo *repository.RegulationRepository, offeringRepo *repository.CourseOfferingRepository) *RegulationService {
	return &RegulationService{
		RegulationRepo: regulationRepo,
		OfferingRepo:   offeringRepo,
	}
}

func sectionRules(in []SectionRuleInput) ([]model.SectionRule, error) {
	rules := make([]model.SectionRule, 0, len(in))
	for i, r := range in {
		if r.Marks <= 0 || r.MinQuestionsCount <= 0 {
			return nil, util.ErrInvalidSectionRules
		}
		rules = append(rules, model.SectionRule{
			SectionName:       strings.TrimSpace(r.SectionName),
			Marks:             r.Marks,
			MinQuestionsCount: r.MinQuestionsCount,
			Order:             i + 1,
		})
	}
	return rules, nil
}

func (s *RegulationService) List(page, limit int, search string) (*util.PageResponse, error) {
	page, limit, offset := pageBounds(page, limit)
	list, total, err := s.RegulationRepo.FindWithPagination(offset, limit, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	return &util.PageResponse{List: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *RegulationService) Get(id uint) (*model.Regulation, error) {
	reg, err := s.RegulationRepo.FindByID(id)
	if err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return reg, nil
}

func (s *RegulationService) Create(in RegulationInput) (*model.Regulation, error) {
	rules, err := sectionRules(in.SectionRules)
	if err != nil {
		return nil, err
	}
	reg := &model.Regulation{
		RegulationName: strings.TrimSpace(in.RegulationName),
		SectionRules:   rules,
	}
	if err := s.RegulationRepo.Create(reg); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return s.Get(reg.ID)
}

// Update 规则整体替换
func (s *RegulationService) Update(id uint, in RegulationInput) (*model.Regulation, error) {
	reg, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	rules, err := sectionRules(in.SectionRules)
	if err != nil {
		return nil, err
	}
	reg.RegulationName = strings.TrimSpace(in.RegulationName)
	reg.SectionRules = rules
	if err := s.RegulationRepo.Update(reg); err != nil {
		return nil, translateError(err, util.ErrRecordNotFound)
	}
	return s.Get(id)
}

func (s *RegulationService) Delete(id uint) error {
	n, err := s.OfferingRepo.CountReferencing("regulation_id", id)
	if err != nil {
		return err
	}
	if n > 0 {
		return util.ErrRecordInUse
	}
	return translateError(s.RegulationRepo.Delete(id), util.ErrRecordNotFound)
}

func (s *RegulationService) Dropdown() ([]model.DropdownOption, error) {
	list, err := s.RegulationRepo.FindAll()
	if err != nil {
		return nil, err
	}
	opts := make([]model.DropdownOption, 0, len(list))
	for _, r := range list {
		opts = append(opts, model.DropdownOption{ID: r.ID, Label: r.RegulationName})
	}
	return opts, nil
}
