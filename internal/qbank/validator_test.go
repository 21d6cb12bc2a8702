package qbank

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	got *Tree
	err error
}

func (s *recordingSink) Accept(_ context.Context, t *Tree) error {
	s.got = t
	return s.err
}

func TestValidateForSubmissionFirstViolation(t *testing.T) {
	tree := NewTree(WithIDGenerator(seqIDs()))
	require.NoError(t, tree.ApplyConfiguration(&ConfigurationResponse{
		ModulesInfo: []ModuleInfo{{ModuleNo: 1}, {ModuleNo: 2}, {ModuleNo: 3}},
		SectionsRules: []SectionRule{
			{SectionName: "A", Marks: 2, MinQuestionsCount: 2},
			{SectionName: "B", Marks: 5, MinQuestionsCount: 2},
		},
	}))

	// 模块3分类1 与 模块2分类2 同时不足，应报告模块2分类2
	m2, m3 := tree.Modules()[1], tree.Modules()[2]
	require.True(t, tree.DeleteQuestion(m3.Categories[0].Questions[0].ID))
	require.True(t, tree.DeleteQuestion(m2.Categories[1].Questions[0].ID))
	require.True(t, tree.DeleteQuestion(m2.Categories[1].Questions[0].ID))

	err := ValidateForSubmission(tree)
	var ise *IncompleteSectionError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 2, ise.Module)
	assert.Equal(t, 2, ise.Category)
	assert.Equal(t, 2, ise.Required)
	assert.Equal(t, 0, ise.Found)
	assert.Equal(t, "Module 2, Category 2 requires at least 2 questions (found 0)", err.Error())
}

func TestValidateForSubmissionUnconfirmedCategory(t *testing.T) {
	tree := newTestTree(t, 1)
	m := tree.Modules()[0]
	added, err := tree.AddCategories(m.ID, 1)
	require.NoError(t, err)

	// 未确认且目标为 0 的分类不构成违规
	assert.NoError(t, ValidateForSubmission(tree))

	tree.SetCategoryField(m.ID, added[0].ID, FieldQuestionCount, "2")
	var ise *IncompleteSectionError
	assert.ErrorAs(t, ValidateForSubmission(tree), &ise)
}

func TestValidateForSubmissionEmptyTree(t *testing.T) {
	assert.NoError(t, ValidateForSubmission(NewTree()))
	assert.NoError(t, ValidateForSubmission(nil))
}

func TestSubmit(t *testing.T) {
	t.Run("hands a copy to the sink", func(t *testing.T) {
		tree := newTestTree(t, 1)
		c := confirmedCategory(t, tree, "2", "1")
		sink := &recordingSink{}

		require.NoError(t, Submit(context.Background(), tree, sink))
		require.NotNil(t, sink.got)
		assert.Equal(t, tree.Modules(), sink.got.Modules())

		tree.DeleteQuestion(c.Questions[0].ID)
		assert.Equal(t, 1, sink.got.Stats().Questions)
	})

	t.Run("invalid tree never reaches the sink", func(t *testing.T) {
		tree := newTestTree(t, 1)
		c := confirmedCategory(t, tree, "2", "1")
		tree.DeleteQuestion(c.Questions[0].ID)
		sink := &recordingSink{}

		var ise *IncompleteSectionError
		assert.ErrorAs(t, Submit(context.Background(), tree, sink), &ise)
		assert.Nil(t, sink.got)
	})

	t.Run("sink error is returned", func(t *testing.T) {
		tree := newTestTree(t, 1)
		boom := errors.New("boom")
		assert.ErrorIs(t, Submit(context.Background(), tree, &recordingSink{err: boom}), boom)
	})
}
