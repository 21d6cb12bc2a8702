package service

import (
	"context"
	"errors"

	"examcell_backend/internal/qbank"
	"examcell_backend/internal/repository"
	"examcell_backend/internal/util"
	"examcell_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// ConfigurationService 本地题库配置：模块来自课程开设，分节规则来自法规
type ConfigurationService struct {
	OfferingRepo   *repository.CourseOfferingRepository
	RegulationRepo *repository.RegulationRepository
}

func NewConfigurationService(offeringRepo *repository.CourseOfferingRepository, regulationRepo *repository.RegulationRepository) *ConfigurationService {
	return &ConfigurationService{
		OfferingRepo:   offeringRepo,
		RegulationRepo: regulationRepo,
	}
}

func (s *ConfigurationService) FetchConfiguration(ctx context.Context, req qbank.ConfigurationRequest) (resp *qbank.ConfigurationResponse, err error) {
	_, span := tracing.StartSpan(ctx, "ConfigurationService.FetchConfiguration",
		attribute.Int("department_id", req.DepartmentID),
		attribute.Int("course_id", req.CourseID),
		attribute.Int("program_id", req.ProgramID),
		attribute.Int("regulation_id", req.RegulationID),
	)
	defer func() { tracing.End(span, err) }()

	if req.DepartmentID <= 0 || req.CourseID <= 0 || req.ProgramID <= 0 || req.RegulationID <= 0 {
		return nil, util.ErrConfigurationNotFound
	}

	offering, err := s.OfferingRepo.FindBySelection(uint(req.DepartmentID), uint(req.CourseID), uint(req.ProgramID), uint(req.RegulationID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrConfigurationNotFound
		}
		return nil, err
	}

	reg, err := s.RegulationRepo.FindByID(uint(req.RegulationID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrConfigurationNotFound
		}
		return nil, err
	}

	resp = &qbank.ConfigurationResponse{
		ModulesInfo:   make([]qbank.ModuleInfo, 0, len(offering.Modules)),
		SectionsRules: make([]qbank.SectionRule, 0, len(reg.SectionRules)),
	}
	for _, m := range offering.Modules {
		resp.ModulesInfo = append(resp.ModulesInfo, qbank.ModuleInfo{
			ModuleNo:   m.ModuleNo,
			ModuleName: m.ModuleName,
		})
	}
	for _, r := range reg.SectionRules {
		resp.SectionsRules = append(resp.SectionsRules, qbank.SectionRule{
			SectionName:       r.SectionName,
			Marks:             r.Marks,
			MinQuestionsCount: r.MinQuestionsCount,
		})
	}
	return resp, nil
}
