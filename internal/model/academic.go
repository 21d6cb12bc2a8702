package model

// swagger:model Department
type Department struct {
	BaseModel
	DepartmentName string `gorm:"size:128;uniqueIndex;not null" json:"departmentName"`
	Abbreviation   string `gorm:"size:32" json:"abbreviation"`
	ReviewerID     *uint  `json:"reviewerId"`
	Reviewer       *User  `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
}

func (Department) TableName() string {
	return "departments"
}

// swagger:model Program
type Program struct {
	BaseModel
	ProgramName string `gorm:"size:128;uniqueIndex;not null" json:"programName"`
}

func (Program) TableName() string {
	return "programs"
}

// swagger:model Course
type Course struct {
	BaseModel
	CourseCode  string  `gorm:"size:32;uniqueIndex;not null" json:"courseCode"`
	CourseTitle string  `gorm:"size:255;not null" json:"courseTitle"`
	Credits     float64 `json:"credits"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Regulation
type Regulation struct {
	BaseModel
	RegulationName string        `gorm:"size:64;uniqueIndex;not null" json:"regulationName"`
	SectionRules   []SectionRule `gorm:"constraint:OnDelete:CASCADE;" json:"sectionRules"`
}

func (Regulation) TableName() string {
	return "regulations"
}

// SectionRule 某一法规下每个模块都要满足的分节规则，按 Order 排序
type SectionRule struct {
	BaseModel
	RegulationID      uint   `gorm:"index;not null" json:"regulationId"`
	SectionName       string `gorm:"size:128" json:"sectionName"`
	Marks             int    `gorm:"not null" json:"marks"`
	MinQuestionsCount int    `gorm:"not null" json:"minQuestionsCount"`
	Order             int    `gorm:"column:sort_order" json:"order"`
}

func (SectionRule) TableName() string {
	return "section_rules"
}
