package model

import "time"

// 论文状态
const (
	ThesisStatusProposed    = "proposed"
	ThesisStatusInProgress  = "in_progress"
	ThesisStatusUnderReview = "under_review"
	ThesisStatusCompleted   = "completed"
	ThesisStatusCancelled   = "cancelled"
)

// ValidThesisStatus 论文状态是否合法
func ValidThesisStatus(s string) bool {
	switch s {
	case ThesisStatusProposed, ThesisStatusInProgress, ThesisStatusUnderReview,
		ThesisStatusCompleted, ThesisStatusCancelled:
		return true
	}
	return false
}

// Thesis 论文表 — 对应 theses
type Thesis struct {
	ID          uint   `gorm:"primaryKey"                                json:"id"`
	Title       string `gorm:"type:varchar(255);not null"                json:"title"`
	Description string `gorm:"type:text;not null;default:''"             json:"description"`
	Level       string `gorm:"type:varchar(20);not null;default:'master'" json:"level"`
	Status      string `gorm:"type:varchar(30);not null;default:'proposed'" json:"status"`
	AuthorID    *uint  `                                                 json:"author_id,omitempty"`
	BaseModel

	// 关联
	Author      *User  `gorm:"foreignKey:AuthorID"                                                json:"author,omitempty"`
	Supervisors []User `gorm:"many2many:thesis_supervisors;joinForeignKey:ThesisID;joinReferences:SupervisorID" json:"supervisors,omitempty"`
}

// TableName 指定表名
func (Thesis) TableName() string { return "theses" }

// ThesisSupervisor 论文-导师分配表 — 对应 thesis_supervisors
type ThesisSupervisor struct {
	ThesisID     uint      `gorm:"primaryKey"                         json:"thesis_id"`
	SupervisorID uint      `gorm:"primaryKey"                         json:"supervisor_id"`
	AssignedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"assigned_at"`
}

// TableName 指定表名
func (ThesisSupervisor) TableName() string { return "thesis_supervisors" }

// ResearchProject 科研项目表 — 对应 research_projects
type ResearchProject struct {
	ID          uint   `gorm:"primaryKey"                             json:"id"`
	Title       string `gorm:"type:varchar(255);not null"             json:"title"`
	Description string `gorm:"type:text;not null;default:''"          json:"description"`
	Status      string `gorm:"type:varchar(30);not null;default:'active'" json:"status"`
	OwnerID     uint   `gorm:"not null"                               json:"owner_id"`
	BaseModel

	Collaborators []User `gorm:"many2many:research_project_collaborators;joinForeignKey:ProjectID;joinReferences:UserID" json:"collaborators,omitempty"`
}

// TableName 指定表名
func (ResearchProject) TableName() string { return "research_projects" }
