package model

// swagger:model CourseOffering
type CourseOffering struct {
	BaseModel
	AcademicYear string       `gorm:"size:16" json:"academicYear"`
	Semester     string       `gorm:"size:16" json:"semester"`
	YearOfStudy  string       `gorm:"size:16" json:"yearOfStudy"`
	DepartmentID uint         `gorm:"uniqueIndex:idx_offering_course_program_dept;not null" json:"departmentId"`
	Department   Department   `json:"department"`
	CourseID     uint         `gorm:"uniqueIndex:idx_offering_course_program_dept;not null" json:"courseId"`
	Course       Course       `json:"course"`
	ProgramID    uint         `gorm:"uniqueIndex:idx_offering_course_program_dept;not null" json:"programId"`
	Program      Program      `json:"program"`
	RegulationID uint         `gorm:"index;not null" json:"regulationId"`
	Regulation   Regulation   `json:"regulation"`
	SubmitterID  *uint        `json:"submitterId"`
	Submitter    *User        `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	Instructors  []User       `gorm:"many2many:course_offering_instructors;" json:"instructors"`
	Modules      []ModuleInfo `gorm:"constraint:OnDelete:CASCADE;" json:"modules"`
}

func (CourseOffering) TableName() string {
	return "course_offerings"
}

type ModuleInfo struct {
	BaseModel
	CourseOfferingID uint   `gorm:"index;not null" json:"courseOfferingId"`
	ModuleNo         int    `gorm:"not null" json:"moduleNo"`
	ModuleName       string `gorm:"size:255" json:"moduleName"`
}

func (ModuleInfo) TableName() string {
	return "module_infos"
}
