// Package export 试卷文档渲染
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"examcell_backend/internal/qbank"
	"examcell_backend/internal/util"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName = "Question Bank"
	mathFont  = "Cambria Math"
	lastCol   = "G"
)

var columns = []struct {
	title string
	width float64
}{
	{"Q.No", 8},
	{"Question", 70},
	{"Images", 40},
	{"Module", 9},
	{"CO", 7},
	{"BL", 7},
	{"Marks", 8},
}

// XLSXRenderer 用 excelize 生成试卷表格，$...$ 公式片段使用公式字体
type XLSXRenderer struct{}

func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

func (r *XLSXRenderer) ContentType() string {
	return util.MimeXLSX
}

func (r *XLSXRenderer) FileExtension() string {
	return ".xlsx"
}

type styles struct {
	title   int
	meta    int
	section int
	head    int
	body    int
	center  int
}

func newStyles(f *excelize.File) (*styles, error) {
	var s styles
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if s.meta, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
	}); err != nil {
		return nil, err
	}
	if s.section, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.head, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.body, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.center, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *XLSXRenderer) Render(w io.Writer, p *qbank.Paper) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	st, err := newStyles(f)
	if err != nil {
		return err
	}
	for i, c := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, c.width); err != nil {
			return err
		}
	}

	row := 1
	if row, err = writeHeader(f, st, p.Header, row); err != nil {
		return err
	}
	for _, sec := range p.Sections {
		row++
		if row, err = writeSection(f, st, sec, row); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func mergedLine(f *excelize.File, style, row int, text string) error {
	start, end := cell("A", row), cell(lastCol, row)
	if err := f.MergeCell(SheetName, start, end); err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, start, text); err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, start, end, style)
}

func writeHeader(f *excelize.File, st *styles, h qbank.PaperHeader, row int) (int, error) {
	lines := []string{}
	if h.CourseCode != "" || h.CourseTitle != "" {
		course := joinNonEmpty(" - ", h.CourseCode, h.CourseTitle)
		if h.Credits > 0 {
			course += fmt.Sprintf("    Credits: %s", strconv.FormatFloat(h.Credits, 'f', -1, 64))
		}
		lines = append(lines, "Course: "+course)
	}
	if h.Department != "" || h.Program != "" {
		lines = append(lines, joinNonEmpty("    ", labelled("Department", h.Department), labelled("Program", h.Program)))
	}
	if meta := joinNonEmpty("    ",
		labelled("Regulation", h.Regulation),
		labelled("Academic Year", h.AcademicYear),
		labelled("Semester", h.Semester),
		labelled("Year", h.YearOfStudy),
	); meta != "" {
		lines = append(lines, meta)
	}
	if len(h.Faculty) > 0 {
		lines = append(lines, "Faculty: "+strings.Join(h.Faculty, ", "))
	}

	title := h.InstitutionName
	if title == "" {
		title = "Question Bank"
	}
	if err := mergedLine(f, st.title, row, title); err != nil {
		return row, err
	}
	if err := f.SetRowHeight(SheetName, row, 24); err != nil {
		return row, err
	}
	for _, l := range lines {
		row++
		if err := mergedLine(f, st.meta, row, l); err != nil {
			return row, err
		}
	}
	return row + 1, nil
}

func labelled(label, value string) string {
	if value == "" {
		return ""
	}
	return label + ": " + value
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// SectionHeading 例如 "2 MARK QUESTIONS (Questions: 5, Marks each: 2)"
func SectionHeading(sec qbank.PaperSection) string {
	return fmt.Sprintf("%s (Questions: %d, Marks each: %d)", sec.Title, len(sec.Selected()), sec.Marks)
}

func writeSection(f *excelize.File, st *styles, sec qbank.PaperSection, row int) (int, error) {
	if err := mergedLine(f, st.section, row, SectionHeading(sec)); err != nil {
		return row, err
	}
	row++
	for i, c := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(SheetName, cell(col, row), c.title); err != nil {
			return row, err
		}
	}
	if err := f.SetCellStyle(SheetName, cell("A", row), cell(lastCol, row), st.head); err != nil {
		return row, err
	}

	for _, q := range sec.Selected() {
		first := row + 1
		for j, part := range q.Parts {
			row++
			if j == 0 {
				if err := f.SetCellValue(SheetName, cell("A", row), q.Number); err != nil {
					return row, err
				}
			}
			if err := f.SetCellRichText(SheetName, cell("B", row), richText(part)); err != nil {
				return row, err
			}
			if len(part.ImageURLs) > 0 {
				if err := f.SetCellValue(SheetName, cell("C", row), strings.Join(part.ImageURLs, "\n")); err != nil {
					return row, err
				}
				if err := f.SetCellHyperLink(SheetName, cell("C", row), part.ImageURLs[0], "External"); err != nil {
					return row, err
				}
			}
			values := map[string]int{"D": q.Module, "E": q.CourseOutcome, "F": part.BloomsLevel, "G": part.Marks}
			for col, v := range values {
				if v == 0 {
					continue
				}
				if err := f.SetCellValue(SheetName, cell(col, row), v); err != nil {
					return row, err
				}
			}
		}
		if err := f.SetCellStyle(SheetName, cell("A", first), cell("A", row), st.center); err != nil {
			return row, err
		}
		if err := f.SetCellStyle(SheetName, cell("B", first), cell("C", row), st.body); err != nil {
			return row, err
		}
		if err := f.SetCellStyle(SheetName, cell("D", first), cell(lastCol, row), st.center); err != nil {
			return row, err
		}
	}
	return row + 1, nil
}

// richText 小问标号在前，公式片段使用公式字体与斜体
func richText(part qbank.PaperPart) []excelize.RichTextRun {
	runs := make([]excelize.RichTextRun, 0, 4)
	if part.Label != "" {
		runs = append(runs, excelize.RichTextRun{Text: part.Label + " ", Font: &excelize.Font{Bold: true}})
	}
	for _, seg := range qbank.SplitMath(part.Content) {
		run := excelize.RichTextRun{Text: seg.Text}
		if seg.Math {
			run.Font = &excelize.Font{Family: mathFont, Italic: true}
		}
		runs = append(runs, run)
	}
	if len(runs) == 0 {
		runs = append(runs, excelize.RichTextRun{Text: ""})
	}
	return runs
}

func cell(col string, row int) string {
	return col + strconv.Itoa(row)
}
