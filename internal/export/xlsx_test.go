package export

import (
	"bytes"
	"testing"

	"examcell_backend/internal/qbank"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func samplePaper() *qbank.Paper {
	return &qbank.Paper{
		Header: qbank.PaperHeader{
			InstitutionName: "Exam Cell",
			CourseCode:      "CS101",
			CourseTitle:     "Programming",
			Credits:         3,
			Department:      "CSE",
			Regulation:      "R2023",
			Faculty:         []string{"Alice", "Bob"},
		},
		Sections: []qbank.PaperSection{
			{
				Title: "2 MARK QUESTIONS",
				Marks: 2,
				Limit: 2,
				Total: 2,
				Questions: []qbank.PaperQuestion{
					{Number: 1, Module: 1, CourseOutcome: 2, Marks: 2, Parts: []qbank.PaperPart{
						{Content: "Define $x^2$ here", Marks: 2, BloomsLevel: 1},
					}},
					{Number: 2, Module: 2, Marks: 2, Parts: []qbank.PaperPart{
						{Label: "a)", Content: "First", Marks: 1, ImageURLs: []string{"http://img/1.png"}},
						{Label: "b)", Content: "Second", Marks: 1},
					}},
				},
			},
		},
	}
}

func findRow(rows [][]string, col int, want string) int {
	for i, r := range rows {
		if len(r) > col && r[col] == want {
			return i
		}
	}
	return -1
}

func TestXLSXRenderer(t *testing.T) {
	r := NewXLSXRenderer()
	assert.Equal(t, ".xlsx", r.FileExtension())

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, samplePaper()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Exam Cell", title)

	course, err := f.GetCellValue(SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Course: CS101 - Programming    Credits: 3", course)

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)

	heading := findRow(rows, 0, "2 MARK QUESTIONS (Questions: 2, Marks each: 2)")
	require.GreaterOrEqual(t, heading, 0)
	assert.Equal(t, []string{"Q.No", "Question", "Images", "Module", "CO", "BL", "Marks"}, rows[heading+1])

	q1 := findRow(rows, 1, "Define x^2 here")
	require.GreaterOrEqual(t, q1, 0)
	assert.Equal(t, "1", rows[q1][0])
	assert.Equal(t, "2", rows[q1][4])

	partA := findRow(rows, 1, "a) First")
	require.GreaterOrEqual(t, partA, 0)
	assert.Equal(t, "2", rows[partA][0])
	assert.Equal(t, "http://img/1.png", rows[partA][2])

	partB := findRow(rows, 1, "b) Second")
	assert.Equal(t, partA+1, partB)
	assert.Empty(t, rows[partB][0])
}

func TestXLSXRendererStopsAtSectionLimit(t *testing.T) {
	paper := samplePaper()
	paper.Sections[0].Limit = 1

	var buf bytes.Buffer
	require.NoError(t, NewXLSXRenderer().Render(&buf, paper))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, findRow(rows, 0, "2 MARK QUESTIONS (Questions: 1, Marks each: 2)"), 0)
	assert.GreaterOrEqual(t, findRow(rows, 1, "Define x^2 here"), 0)
	assert.Equal(t, -1, findRow(rows, 0, "2"))
	assert.Equal(t, -1, findRow(rows, 1, "a) First"))
	assert.Equal(t, -1, findRow(rows, 1, "b) Second"))
}

func TestRichTextMathRuns(t *testing.T) {
	runs := richText(qbank.PaperPart{Label: "a)", Content: "Solve $x+1$ now"})
	require.Len(t, runs, 4)
	assert.Equal(t, "a) ", runs[0].Text)
	assert.Equal(t, "x+1", runs[2].Text)
	require.NotNil(t, runs[2].Font)
	assert.Equal(t, mathFont, runs[2].Font.Family)
	assert.True(t, runs[2].Font.Italic)
	assert.Nil(t, runs[3].Font)
}

func TestSectionHeading(t *testing.T) {
	sec := qbank.PaperSection{Title: "Part A", Marks: 5, Limit: 2, Total: 3, Questions: make([]qbank.PaperQuestion, 3)}
	assert.Equal(t, "Part A (Questions: 2, Marks each: 5)", SectionHeading(sec))

	sec.Limit = 7
	assert.Equal(t, "Part A (Questions: 3, Marks each: 5)", SectionHeading(sec))
}
