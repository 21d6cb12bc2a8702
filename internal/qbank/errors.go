package qbank

import (
	"fmt"
	"strings"
)

// ValidationError 调用方传入的参数不满足前置条件，操作未产生任何修改
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError 配置拉取失败或返回结构不合法
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if cause := strings.TrimSpace(e.Err.Error()); cause != "" && cause != e.Message {
		return e.Message + ": " + cause
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// IncompleteSectionError 提交校验时发现的第一个题目数量不足的分类
type IncompleteSectionError struct {
	Module   int `json:"module"`
	Category int `json:"category"`
	Required int `json:"required"`
	Found    int `json:"found"`
}

func (e *IncompleteSectionError) Error() string {
	return fmt.Sprintf("Module %d, Category %d requires at least %d questions (found %d)",
		e.Module, e.Category, e.Required, e.Found)
}
