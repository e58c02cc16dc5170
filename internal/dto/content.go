package dto

// ── 进展 / 会议纪要 / 待办 DTO ──

// CreateUpdateRequest 发布论文进展
// UpdateType 为空时按作者与论文的关系推断：论文导师为 feedback，其余为 progress；feedback 仅论文导师可用
type CreateUpdateRequest struct {
	Content    string `json:"content"     binding:"required,max=20000"`
	UpdateType string `json:"update_type" binding:"omitempty,oneof=progress feedback comment"`
	ParentID   *uint  `json:"parent_id"`
}

// EditUpdateRequest 编辑进展内容
type EditUpdateRequest struct {
	Content string `json:"content" binding:"required,max=20000"`
}

// CreateMeetingNoteRequest 新建会议纪要，thesis_id 与 project_id 二选一
type CreateMeetingNoteRequest struct {
	ThesisID  *uint  `json:"thesis_id"`
	ProjectID *uint  `json:"project_id"`
	Title     string `json:"title"   binding:"omitempty,max=255"`
	Content   string `json:"content" binding:"required,max=50000"`
}

// EditMeetingNoteRequest 编辑会议纪要
type EditMeetingNoteRequest struct {
	Title   string `json:"title"   binding:"omitempty,max=255"`
	Content string `json:"content" binding:"required,max=50000"`
}

// AssignTodoRequest 指派待办，AssigneeID 为空表示取消指派
type AssignTodoRequest struct {
	AssigneeID *uint `json:"assignee_id"`
}

// ChangeThesisStatusRequest 变更论文状态
type ChangeThesisStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=proposed in_progress under_review completed cancelled"`
}

// ── 响应 ──

// UpdateResponse 进展响应
type UpdateResponse struct {
	ID         uint        `json:"id"`
	ThesisID   uint        `json:"thesis_id"`
	AuthorID   uint        `json:"author_id"`
	ParentID   *uint       `json:"parent_id,omitempty"`
	UpdateType string      `json:"update_type"`
	Content    string      `json:"content"`
	References []TodoBrief `json:"references"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

// MeetingNoteResponse 会议纪要响应
type MeetingNoteResponse struct {
	ID         uint        `json:"id"`
	ThesisID   *uint       `json:"thesis_id,omitempty"`
	ProjectID  *uint       `json:"project_id,omitempty"`
	AuthorID   uint        `json:"author_id"`
	Title      string      `json:"title"`
	Content    string      `json:"content"`
	References []TodoBrief `json:"references"`
	CreatedAt  string      `json:"created_at"`
	UpdatedAt  string      `json:"updated_at"`
}

// TodoBrief 待办简要信息
type TodoBrief struct {
	ID           uint    `json:"id"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	AssignedToID *uint   `json:"assigned_to_id,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
}

// ReferencingContainer 引用某待办的进展或会议纪要
type ReferencingContainer struct {
	Kind      string `json:"kind"`
	ID        uint   `json:"id"`
	ThesisID  *uint  `json:"thesis_id,omitempty"`
	ProjectID *uint  `json:"project_id,omitempty"`
	AuthorID  uint   `json:"author_id"`
	Title     string `json:"title"`
	Preview   string `json:"preview"`
	CreatedAt string `json:"created_at"`
}

// ThesisStatusResponse 论文状态变更结果
type ThesisStatusResponse struct {
	ID        uint   `json:"id"`
	OldStatus string `json:"old_status"`
	Status    string `json:"status"`
}
