package model

import (
	"time"

	"gorm.io/datatypes"
)

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewAccepted ReviewStatus = "accepted"
	ReviewRejected ReviewStatus = "rejected"
)

// swagger:model QuestionBank
type QuestionBank struct {
	UUIDBase
	CourseOfferingID *uint           `gorm:"index" json:"courseOfferingId"`
	CourseOffering   *CourseOffering `json:"courseOffering,omitempty"`
	DepartmentID     uint            `gorm:"index" json:"departmentId"`
	CourseID         uint            `gorm:"index" json:"courseId"`
	ProgramID        uint            `json:"programId"`
	RegulationID     uint            `json:"regulationId"`
	FacultyID        uint            `gorm:"index;not null" json:"facultyId"`
	Faculty          User            `gorm:"foreignKey:FacultyID" json:"faculty"`
	ReviewStatus     ReviewStatus    `gorm:"size:16;index;default:'pending'" json:"reviewStatus"`
	Comment          string          `gorm:"type:text" json:"comment"`
	ReviewerID       *uint           `json:"reviewerId"`
	SubmittedAt      time.Time       `json:"submittedAt"`
	ReviewedAt       *time.Time      `json:"reviewedAt"`
	Tree             datatypes.JSON  `json:"tree" swaggertype:"object"`
}

func (QuestionBank) TableName() string {
	return "question_banks"
}

// QuestionBankStats 审核看板统计
type QuestionBankStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}
