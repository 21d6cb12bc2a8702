package qbank

import "context"

// SubmissionSink 接收校验通过的题库树
type SubmissionSink interface {
	Accept(ctx context.Context, tree *Tree) error
}

// ValidateForSubmission 按 模块 -> 分类 顺序检查，遇到第一个不满足的分类立即返回
func ValidateForSubmission(t *Tree) error {
	if t == nil {
		return nil
	}
	for _, m := range t.modules {
		for _, c := range m.Categories {
			if len(c.Questions) < c.NumberOfQuestions {
				return &IncompleteSectionError{
					Module:   m.ModuleNumber,
					Category: c.CategoryNumber,
					Required: c.NumberOfQuestions,
					Found:    len(c.Questions),
				}
			}
		}
	}
	return nil
}

// Submit 校验通过后把树的副本交给 sink
func Submit(ctx context.Context, t *Tree, sink SubmissionSink) error {
	if err := ValidateForSubmission(t); err != nil {
		return err
	}
	return sink.Accept(ctx, t.Clone())
}
