package qbank

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgMissingSelection     = "missing selection"
	msgInvalidConfiguration = "invalid configuration response"
	msgConfigurationFailed  = "failed to load question bank configuration"
)

// Selection 前端下拉框选中的四个标识，原样保留字符串以便判断缺失
type Selection struct {
	DepartmentID string `json:"department_id"`
	CourseID     string `json:"course_id"`
	ProgramID    string `json:"program_id"`
	RegulationID string `json:"regulation_id"`
}

type ConfigurationRequest struct {
	DepartmentID int `json:"department_id"`
	CourseID     int `json:"course_id"`
	ProgramID    int `json:"program_id"`
	RegulationID int `json:"regulation_id"`
}

type ModuleInfo struct {
	ModuleNo   int    `json:"module_no" validate:"gt=0"`
	ModuleName string `json:"module_name,omitempty"`
}

type SectionRule struct {
	SectionName       string `json:"section_name"`
	Marks             int    `json:"marks" validate:"gt=0"`
	MinQuestionsCount int    `json:"min_questions_count" validate:"gt=0"`
}

// ConfigurationResponse 同一份 sections_rules 应用到每个模块
type ConfigurationResponse struct {
	ModulesInfo   []ModuleInfo  `json:"modules_info" validate:"required,min=1,unique=ModuleNo,dive"`
	SectionsRules []SectionRule `json:"sections_rules" validate:"required,min=1,dive"`
}

type ConfigurationProvider interface {
	FetchConfiguration(ctx context.Context, req ConfigurationRequest) (*ConfigurationResponse, error)
}

// Request 校验选择项并转换为配置请求，不发起任何外部调用
func (s Selection) Request() (ConfigurationRequest, error) {
	fields := []string{s.DepartmentID, s.CourseID, s.ProgramID, s.RegulationID}
	ids := make([]int, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			return ConfigurationRequest{}, &ValidationError{Message: msgMissingSelection}
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return ConfigurationRequest{}, validationErrorf("invalid selection %q", f)
		}
		ids[i] = n
	}
	return ConfigurationRequest{
		DepartmentID: ids[0],
		CourseID:     ids[1],
		ProgramID:    ids[2],
		RegulationID: ids[3],
	}, nil
}

type Loader struct {
	provider ConfigurationProvider
	validate *validator.Validate
}

func NewLoader(provider ConfigurationProvider) *Loader {
	return &Loader{
		provider: provider,
		validate: validator.New(),
	}
}

// Fetch 拉取并校验配置，失败时不触碰任何树
func (l *Loader) Fetch(ctx context.Context, sel Selection) (*ConfigurationResponse, error) {
	req, err := sel.Request()
	if err != nil {
		return nil, err
	}

	resp, err := l.provider.FetchConfiguration(ctx, req)
	if err != nil {
		msg := msgConfigurationFailed
		if s := strings.TrimSpace(err.Error()); s != "" {
			msg = s
		}
		return nil, &ConfigurationError{Message: msg, Err: err}
	}
	if resp == nil {
		return nil, &ConfigurationError{Message: msgInvalidConfiguration}
	}
	if err := l.validate.Struct(resp); err != nil {
		return nil, &ConfigurationError{Message: msgInvalidConfiguration, Err: err}
	}
	return resp, nil
}

// LoadFromConfiguration 成功时整体替换树，失败时保持原样
func (l *Loader) LoadFromConfiguration(ctx context.Context, t *Tree, sel Selection) error {
	resp, err := l.Fetch(ctx, sel)
	if err != nil {
		return err
	}
	return t.ApplyConfiguration(resp)
}

// ApplyConfiguration 按配置构建预确认的树，每条规则对应一个分类
func (t *Tree) ApplyConfiguration(resp *ConfigurationResponse) error {
	if resp == nil || len(resp.ModulesInfo) == 0 || len(resp.SectionsRules) == 0 {
		return &ConfigurationError{Message: msgInvalidConfiguration}
	}
	for _, r := range resp.SectionsRules {
		if r.Marks <= 0 || r.MinQuestionsCount <= 0 {
			return &ConfigurationError{Message: msgInvalidConfiguration}
		}
	}

	modules := make([]*Module, 0, len(resp.ModulesInfo))
	for _, mi := range resp.ModulesInfo {
		m := &Module{
			ID:           t.ids(),
			ModuleNumber: mi.ModuleNo,
			Categories:   make([]*Category, 0, len(resp.SectionsRules)),
		}
		for idx, rule := range resp.SectionsRules {
			c := &Category{
				ID:                t.ids(),
				CategoryNumber:    idx + 1,
				Name:              rule.SectionName,
				Marks:             rule.Marks,
				NumberOfQuestions: rule.MinQuestionsCount,
			}
			t.materialize(c)
			m.Categories = append(m.Categories, c)
		}
		modules = append(modules, m)
	}
	t.modules = modules
	t.modulesConfirmed = true
	return nil
}
