package model

import "time"

// 进展类型
const (
	UpdateTypeProgress = "progress"
	UpdateTypeFeedback = "feedback"
	UpdateTypeComment  = "comment"
)

// ThesisUpdate 论文进展表 — 对应 thesis_updates，parent_id 非空时为评论
type ThesisUpdate struct {
	ID         uint   `gorm:"primaryKey"                                   json:"id"`
	ThesisID   uint   `gorm:"not null"                                     json:"thesis_id"`
	AuthorID   uint   `gorm:"not null"                                     json:"author_id"`
	ParentID   *uint  `                                                    json:"parent_id,omitempty"`
	UpdateType string `gorm:"type:varchar(20);not null;default:'progress'" json:"update_type"`
	Content    string `gorm:"type:text;not null"                           json:"content"`
	BaseModel

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName 指定表名
func (ThesisUpdate) TableName() string { return "thesis_updates" }

// MeetingNote 会议纪要表 — 对应 meeting_notes，thesis_id 与 project_id 二选一
type MeetingNote struct {
	ID        uint   `gorm:"primaryKey"                       json:"id"`
	ThesisID  *uint  `                                        json:"thesis_id,omitempty"`
	ProjectID *uint  `                                        json:"project_id,omitempty"`
	AuthorID  uint   `gorm:"not null"                         json:"author_id"`
	Title     string `gorm:"type:varchar(255);not null;default:''" json:"title"`
	Content   string `gorm:"type:text;not null"               json:"content"`
	BaseModel
}

// TableName 指定表名
func (MeetingNote) TableName() string { return "meeting_notes" }

// ── 待办引用 ──

// 引用容器类型
const (
	ContainerUpdate      = "update"
	ContainerMeetingNote = "meeting_note"
)

// ContainerRef 引用容器（进展或会议纪要）
type ContainerRef struct {
	Kind string `json:"kind"`
	ID   uint   `json:"id"`
}

// UpdateTodoReference 进展-待办引用 — 对应 update_todo_references
type UpdateTodoReference struct {
	UpdateID  uint      `gorm:"primaryKey"                         json:"update_id"`
	TodoID    uint      `gorm:"primaryKey"                         json:"todo_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (UpdateTodoReference) TableName() string { return "update_todo_references" }

// MeetingNoteTodoReference 会议纪要-待办引用 — 对应 meeting_note_todo_references
type MeetingNoteTodoReference struct {
	MeetingNoteID uint      `gorm:"primaryKey"                         json:"meeting_note_id"`
	TodoID        uint      `gorm:"primaryKey"                         json:"todo_id"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (MeetingNoteTodoReference) TableName() string { return "meeting_note_todo_references" }
