// Package qbank 维护题库的 模块 -> 分类 -> 题目 -> 内容块 结构树，
// 以及配置加载与提交前校验。
//
// Tree 不是并发安全的，调用方需要保证同一时间只有一个写者。
package qbank

import (
	"encoding/json"

	"github.com/google/uuid"
)

const (
	MinCount = 1
	MaxCount = 10
)

// Block 题目的一个内容块（多小问题目中的 a) b) ...）
type Block struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	ImageURLs   []string `json:"imageUrls"`
	Marks       int      `json:"marks,omitempty"`
	BloomsLevel int      `json:"bloomsLevel,omitempty"`
}

type Question struct {
	ID            string   `json:"id"`
	Sno           int      `json:"sno"`
	CourseOutcome int      `json:"courseOutcome,omitempty"`
	Blocks        []*Block `json:"blocks"`
}

// Category 即 Section，一个模块中的题型槽位
type Category struct {
	ID                string      `json:"id"`
	CategoryNumber    int         `json:"categoryNumber"`
	Name              string      `json:"name,omitempty"`
	Marks             int         `json:"marks"`
	NumberOfQuestions int         `json:"numberOfQuestions"`
	Questions         []*Question `json:"questions"`
	Confirmed         bool        `json:"confirmed"`
}

type Module struct {
	ID           string      `json:"id"`
	ModuleNumber int         `json:"moduleNumber"`
	Categories   []*Category `json:"categories"`
}

// IDGenerator 生成会话内唯一的标识，删除后不会复用
type IDGenerator func() string

type Option func(*Tree)

func WithIDGenerator(gen IDGenerator) Option {
	return func(t *Tree) {
		if gen != nil {
			t.ids = gen
		}
	}
}

type Tree struct {
	modules          []*Module
	modulesConfirmed bool
	ids              IDGenerator
}

func NewTree(opts ...Option) *Tree {
	t := &Tree{ids: uuid.NewString}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Modules 返回当前模块列表，调用方不应修改返回值
func (t *Tree) Modules() []*Module {
	return t.modules
}

func (t *Tree) ModulesConfirmed() bool {
	return t.modulesConfirmed
}

func (t *Tree) FindModule(moduleID string) *Module {
	for _, m := range t.modules {
		if m.ID == moduleID {
			return m
		}
	}
	return nil
}

func (t *Tree) FindCategory(categoryID string) (*Module, *Category) {
	for _, m := range t.modules {
		for _, c := range m.Categories {
			if c.ID == categoryID {
				return m, c
			}
		}
	}
	return nil, nil
}

func (t *Tree) findModuleCategory(moduleID, categoryID string) *Category {
	m := t.FindModule(moduleID)
	if m == nil {
		return nil
	}
	for _, c := range m.Categories {
		if c.ID == categoryID {
			return c
		}
	}
	return nil
}

func (t *Tree) FindQuestion(questionID string) (*Category, *Question) {
	for _, m := range t.modules {
		for _, c := range m.Categories {
			for _, q := range c.Questions {
				if q.ID == questionID {
					return c, q
				}
			}
		}
	}
	return nil, nil
}

func (t *Tree) findBlock(questionID, blockID string) *Block {
	_, q := t.FindQuestion(questionID)
	if q == nil {
		return nil
	}
	for _, b := range q.Blocks {
		if b.ID == blockID {
			return b
		}
	}
	return nil
}

// HasBlock 用于异步上传完成时判断目标内容块是否仍然存在
func (t *Tree) HasBlock(questionID, blockID string) bool {
	return t.findBlock(questionID, blockID) != nil
}

// BlockIDs 返回题目下所有内容块的ID
func (q *Question) BlockIDs() []string {
	ids := make([]string, 0, len(q.Blocks))
	for _, b := range q.Blocks {
		ids = append(ids, b.ID)
	}
	return ids
}

type Stats struct {
	Modules    int `json:"modules"`
	Categories int `json:"categories"`
	Confirmed  int `json:"confirmed"`
	Questions  int `json:"questions"`
}

func (t *Tree) Stats() Stats {
	var s Stats
	s.Modules = len(t.modules)
	for _, m := range t.modules {
		s.Categories += len(m.Categories)
		for _, c := range m.Categories {
			if c.Confirmed {
				s.Confirmed++
			}
			s.Questions += len(c.Questions)
		}
	}
	return s
}

func (t *Tree) newBlock() *Block {
	return &Block{ID: t.ids(), ImageURLs: []string{}}
}

func (t *Tree) newQuestion(sno int) *Question {
	return &Question{
		ID:     t.ids(),
		Sno:    sno,
		Blocks: []*Block{t.newBlock()},
	}
}

// Clone 深拷贝，提交给外部时使用，避免外部持有会话内部状态
func (t *Tree) Clone() *Tree {
	out := &Tree{modulesConfirmed: t.modulesConfirmed, ids: t.ids}
	out.modules = make([]*Module, 0, len(t.modules))
	for _, m := range t.modules {
		nm := &Module{ID: m.ID, ModuleNumber: m.ModuleNumber, Categories: make([]*Category, 0, len(m.Categories))}
		for _, c := range m.Categories {
			nc := *c
			nc.Questions = make([]*Question, 0, len(c.Questions))
			for _, q := range c.Questions {
				nq := *q
				nq.Blocks = make([]*Block, 0, len(q.Blocks))
				for _, b := range q.Blocks {
					nb := *b
					nb.ImageURLs = append([]string{}, b.ImageURLs...)
					nq.Blocks = append(nq.Blocks, &nb)
				}
				nc.Questions = append(nc.Questions, &nq)
			}
			nm.Categories = append(nm.Categories, &nc)
		}
		out.modules = append(out.modules, nm)
	}
	return out
}

type treeJSON struct {
	ModulesConfirmed bool      `json:"modulesConfirmed"`
	Modules          []*Module `json:"modules"`
}

func (t *Tree) MarshalJSON() ([]byte, error) {
	modules := t.modules
	if modules == nil {
		modules = []*Module{}
	}
	return json.Marshal(treeJSON{ModulesConfirmed: t.modulesConfirmed, Modules: modules})
}

func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if t.ids == nil {
		t.ids = uuid.NewString
	}
	t.modules = raw.Modules
	t.modulesConfirmed = raw.ModulesConfirmed
	for _, m := range t.modules {
		for _, c := range m.Categories {
			if c.Questions == nil {
				c.Questions = []*Question{}
			}
			for _, q := range c.Questions {
				for _, b := range q.Blocks {
					if b.ImageURLs == nil {
						b.ImageURLs = []string{}
					}
				}
			}
		}
	}
	return nil
}
