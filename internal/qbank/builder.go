package qbank

import (
	"strconv"
	"strings"
)

// CategoryField 分类上可在确认前编辑的字段
type CategoryField string

const (
	FieldMarks         CategoryField = "marks"
	FieldQuestionCount CategoryField = "questionCount"
)

// ParseCategoryField 兼容前端使用的 numberOfQuestions 字段名
func ParseCategoryField(name string) (CategoryField, error) {
	switch strings.TrimSpace(name) {
	case "marks":
		return FieldMarks, nil
	case "questionCount", "numberOfQuestions", "question_count":
		return FieldQuestionCount, nil
	}
	return "", validationErrorf("unknown category field %q", name)
}

func checkCount(kind string, count int) error {
	if count < MinCount {
		return validationErrorf("number of %s must be at least %d", kind, MinCount)
	}
	if count > MaxCount {
		return validationErrorf("number of %s must be at most %d", kind, MaxCount)
	}
	return nil
}

// coerceCount 非法或负数输入一律视为 0
func coerceCount(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// InitModulesInput 接受表单中的原始输入
func (t *Tree) InitModulesInput(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return validationErrorf("please enter a valid number of modules (%d-%d)", MinCount, MaxCount)
	}
	return t.InitModules(n)
}

// InitModules 以 count 个空模块重置整棵树
func (t *Tree) InitModules(count int) error {
	if err := checkCount("modules", count); err != nil {
		return err
	}
	modules := make([]*Module, 0, count)
	for i := 1; i <= count; i++ {
		modules = append(modules, &Module{
			ID:           t.ids(),
			ModuleNumber: i,
			Categories:   []*Category{},
		})
	}
	t.modules = modules
	t.modulesConfirmed = true
	return nil
}

// AddCategories 在模块末尾追加 count 个未确认分类，已有分类编号不变
func (t *Tree) AddCategories(moduleID string, count int) ([]*Category, error) {
	if !t.modulesConfirmed {
		return nil, validationErrorf("modules are not confirmed yet")
	}
	m := t.FindModule(moduleID)
	if m == nil {
		return nil, validationErrorf("module %q does not exist", moduleID)
	}
	if err := checkCount("categories", count); err != nil {
		return nil, err
	}
	existing := len(m.Categories)
	added := make([]*Category, 0, count)
	for i := 1; i <= count; i++ {
		added = append(added, &Category{
			ID:             t.ids(),
			CategoryNumber: existing + i,
			Questions:      []*Question{},
		})
	}
	m.Categories = append(m.Categories, added...)
	return added, nil
}

// SetCategoryField 已确认的分类不可再修改，静默忽略
func (t *Tree) SetCategoryField(moduleID, categoryID string, field CategoryField, value string) bool {
	c := t.findModuleCategory(moduleID, categoryID)
	if c == nil || c.Confirmed {
		return false
	}
	n := coerceCount(value)
	switch field {
	case FieldMarks:
		c.Marks = n
	case FieldQuestionCount:
		c.NumberOfQuestions = n
	default:
		return false
	}
	return true
}

// ConfirmCategory 生成 NumberOfQuestions 道题，每题一个空内容块
func (t *Tree) ConfirmCategory(moduleID, categoryID string) (bool, error) {
	c := t.findModuleCategory(moduleID, categoryID)
	if c == nil {
		return false, nil
	}
	if c.Confirmed {
		return false, validationErrorf("category %d is already confirmed", c.CategoryNumber)
	}
	if c.Marks <= 0 {
		return false, validationErrorf("marks for category %d must be greater than 0", c.CategoryNumber)
	}
	if c.NumberOfQuestions <= 0 {
		return false, validationErrorf("number of questions for category %d must be greater than 0", c.CategoryNumber)
	}
	t.materialize(c)
	return true, nil
}

func (t *Tree) materialize(c *Category) {
	questions := make([]*Question, 0, c.NumberOfQuestions)
	for i := 1; i <= c.NumberOfQuestions; i++ {
		questions = append(questions, t.newQuestion(i))
	}
	c.Questions = questions
	c.Confirmed = true
}

// AddQuestion 追加一道题，不受初始题目数量限制
func (t *Tree) AddQuestion(categoryID string) (*Question, error) {
	_, c := t.FindCategory(categoryID)
	if c == nil {
		return nil, nil
	}
	if !c.Confirmed {
		return nil, validationErrorf("category %d is not confirmed", c.CategoryNumber)
	}
	q := t.newQuestion(len(c.Questions) + 1)
	c.Questions = append(c.Questions, q)
	return q, nil
}

// DeleteQuestion 删除后剩余题目按原相对顺序重新编号为 1..N
func (t *Tree) DeleteQuestion(questionID string) bool {
	c, _ := t.FindQuestion(questionID)
	if c == nil {
		return false
	}
	kept := make([]*Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		if q.ID == questionID {
			continue
		}
		q.Sno = len(kept) + 1
		kept = append(kept, q)
	}
	c.Questions = kept
	return true
}

func (t *Tree) AddBlock(questionID string) *Block {
	_, q := t.FindQuestion(questionID)
	if q == nil {
		return nil
	}
	b := t.newBlock()
	q.Blocks = append(q.Blocks, b)
	return b
}

// RemoveBlock 题目至少保留一个内容块
func (t *Tree) RemoveBlock(questionID, blockID string) bool {
	_, q := t.FindQuestion(questionID)
	if q == nil || len(q.Blocks) <= 1 {
		return false
	}
	for i, b := range q.Blocks {
		if b.ID == blockID {
			q.Blocks = append(q.Blocks[:i], q.Blocks[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Tree) UpdateBlockContent(questionID, blockID, text string) bool {
	b := t.findBlock(questionID, blockID)
	if b == nil {
		return false
	}
	b.Content = text
	return true
}

func (t *Tree) AddBlockImage(questionID, blockID, url string) bool {
	b := t.findBlock(questionID, blockID)
	if b == nil {
		return false
	}
	b.ImageURLs = append(b.ImageURLs, url)
	return true
}

func (t *Tree) RemoveBlockImage(questionID, blockID string, index int) bool {
	b := t.findBlock(questionID, blockID)
	if b == nil || index < 0 || index >= len(b.ImageURLs) {
		return false
	}
	urls := make([]string, 0, len(b.ImageURLs)-1)
	urls = append(urls, b.ImageURLs[:index]...)
	urls = append(urls, b.ImageURLs[index+1:]...)
	b.ImageURLs = urls
	return true
}

// SetBlockMeta 小问分值与布鲁姆层级，负数按 0 处理
func (t *Tree) SetBlockMeta(questionID, blockID string, marks, bloomsLevel int) bool {
	b := t.findBlock(questionID, blockID)
	if b == nil {
		return false
	}
	b.Marks = nonNegative(marks)
	b.BloomsLevel = nonNegative(bloomsLevel)
	return true
}

func (t *Tree) SetQuestionOutcome(questionID string, outcome int) bool {
	_, q := t.FindQuestion(questionID)
	if q == nil {
		return false
	}
	q.CourseOutcome = nonNegative(outcome)
	return true
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
