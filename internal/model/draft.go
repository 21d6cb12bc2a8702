package model

import (
	"encoding/json"
	"time"
)

// QuestionBankDraft 保存在 Redis 中的草稿，不落库
type QuestionBankDraft struct {
	ID           string          `json:"id"`
	UserID       uint            `json:"userId"`
	DepartmentID string          `json:"departmentId"`
	CourseID     string          `json:"courseId"`
	ProgramID    string          `json:"programId"`
	RegulationID string          `json:"regulationId"`
	Tree         json.RawMessage `json:"tree" swaggertype:"object"`
	SavedAt      time.Time       `json:"savedAt"`
}
