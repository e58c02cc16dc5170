package model

import "time"

// 待办状态
const (
	TodoStatusPending   = "pending"
	TodoStatusCompleted = "completed"
	TodoStatusCancelled = "cancelled"
)

// 待办优先级
const (
	TodoPriorityLow    = "low"
	TodoPriorityMedium = "medium"
	TodoPriorityHigh   = "high"
)

// Todo 待办表 — 对应 todos，thesis_id 与 project_id 二选一
type Todo struct {
	ID           uint       `gorm:"primaryKey"                                 json:"id"`
	ThesisID     *uint      `                                                  json:"thesis_id,omitempty"`
	ProjectID    *uint      `                                                  json:"project_id,omitempty"`
	AuthorID     uint       `gorm:"not null"                                   json:"author_id"`
	AssignedToID *uint      `                                                  json:"assigned_to_id,omitempty"`
	Title        string     `gorm:"type:varchar(255);not null"                 json:"title"`
	Description  string     `gorm:"type:text;not null;default:''"              json:"description"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Priority     string     `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	DueDate      *time.Time `                                                  json:"due_date,omitempty"`
	CompletedAt  *time.Time `                                                  json:"completed_at,omitempty"`
	BaseModel

	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}

// TableName 指定表名
func (Todo) TableName() string { return "todos" }

// Workspace 待办所属工作区
func (t *Todo) Workspace() Workspace {
	if t.ThesisID != nil {
		return Workspace{Kind: WorkspaceThesis, ID: *t.ThesisID}
	}
	if t.ProjectID != nil {
		return Workspace{Kind: WorkspaceProject, ID: *t.ProjectID}
	}
	return Workspace{}
}
