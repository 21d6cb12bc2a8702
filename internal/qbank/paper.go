package qbank

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// PaperHeader 试卷抬头信息，由调用方从课程开设信息中填充
type PaperHeader struct {
	InstitutionName string   `json:"institutionName"`
	CourseCode      string   `json:"courseCode"`
	CourseTitle     string   `json:"courseTitle"`
	Credits         float64  `json:"credits"`
	YearOfStudy     string   `json:"yearOfStudy"`
	Semester        string   `json:"semester"`
	AcademicYear    string   `json:"academicYear"`
	Regulation      string   `json:"regulation"`
	Department      string   `json:"department"`
	Program         string   `json:"program"`
	Faculty         []string `json:"faculty"`
}

type PaperPart struct {
	Label       string   `json:"label"`
	Content     string   `json:"content"`
	ImageURLs   []string `json:"imageUrls"`
	Marks       int      `json:"marks"`
	BloomsLevel int      `json:"bloomsLevel"`
}

type PaperQuestion struct {
	Number        int         `json:"number"`
	Module        int         `json:"module"`
	CourseOutcome int         `json:"courseOutcome"`
	Marks         int         `json:"marks"`
	Parts         []PaperPart `json:"parts"`
}

// PaperSection 同一分值的题目归为一节，Limit 为该节实际出题数量，
// Questions 只保留前 Limit 道，Total 为题库中该分值的题目总数
type PaperSection struct {
	Title     string          `json:"title"`
	Marks     int             `json:"marks"`
	Limit     int             `json:"limit"`
	Total     int             `json:"total"`
	Questions []PaperQuestion `json:"questions"`
}

// Selected 返回实际出题的题目，Limit 超出范围时按题目数截断
func (s PaperSection) Selected() []PaperQuestion {
	if s.Limit >= 0 && s.Limit < len(s.Questions) {
		return s.Questions[:s.Limit]
	}
	return s.Questions
}

type Paper struct {
	Header   PaperHeader    `json:"header"`
	Sections []PaperSection `json:"sections"`
}

// DocumentRenderer 把拼装好的试卷数据输出为可打印文档
type DocumentRenderer interface {
	ContentType() string
	FileExtension() string
	Render(w io.Writer, p *Paper) error
}

// Flatten 按分值聚合所有模块的题目；limits 以分值为键，缺省时取该节全部题目
func Flatten(t *Tree, header PaperHeader, limits map[int]int) *Paper {
	byMarks := make(map[int]*PaperSection)
	var order []int
	for _, m := range t.modules {
		for _, c := range m.Categories {
			if !c.Confirmed {
				continue
			}
			sec, ok := byMarks[c.Marks]
			if !ok {
				title := c.Name
				if title == "" {
					title = fmt.Sprintf("%d MARK QUESTIONS", c.Marks)
				}
				sec = &PaperSection{Title: title, Marks: c.Marks, Questions: []PaperQuestion{}}
				byMarks[c.Marks] = sec
				order = append(order, c.Marks)
			}
			for _, q := range c.Questions {
				sec.Questions = append(sec.Questions, flattenQuestion(len(sec.Questions)+1, m.ModuleNumber, c.Marks, q))
			}
		}
	}

	sort.Ints(order)
	p := &Paper{Header: header, Sections: make([]PaperSection, 0, len(order))}
	for _, marks := range order {
		sec := byMarks[marks]
		sec.Total = len(sec.Questions)
		sec.Limit = sec.Total
		if l, ok := limits[marks]; ok && l >= 0 && l < sec.Limit {
			sec.Limit = l
		}
		sec.Questions = sec.Questions[:sec.Limit]
		p.Sections = append(p.Sections, *sec)
	}
	return p
}

func flattenQuestion(number, module, marks int, q *Question) PaperQuestion {
	pq := PaperQuestion{
		Number:        number,
		Module:        module,
		CourseOutcome: q.CourseOutcome,
		Marks:         marks,
		Parts:         make([]PaperPart, 0, len(q.Blocks)),
	}
	multi := len(q.Blocks) > 1
	for i, b := range q.Blocks {
		part := PaperPart{
			Content:     b.Content,
			ImageURLs:   append([]string{}, b.ImageURLs...),
			Marks:       b.Marks,
			BloomsLevel: b.BloomsLevel,
		}
		if multi {
			part.Label = partLabel(i)
		}
		if !multi && part.Marks == 0 {
			part.Marks = marks
		}
		pq.Parts = append(pq.Parts, part)
	}
	return pq
}

// partLabel 0 -> "a)", 25 -> "z)", 26 -> "aa)"
func partLabel(i int) string {
	var sb strings.Builder
	for {
		sb.WriteByte(byte('a' + i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	r := []rune(sb.String())
	for l, h := 0, len(r)-1; l < h; l, h = l+1, h-1 {
		r[l], r[h] = r[h], r[l]
	}
	return string(r) + ")"
}
