package model

import "fmt"

// 工作区类型：待办、进展与会议纪要均挂在论文或科研项目之下
const (
	WorkspaceThesis  = "thesis"
	WorkspaceProject = "project"
)

// Workspace 论文或科研项目
type Workspace struct {
	Kind string
	ID   uint
}

// IsZero 是否未指定工作区
func (w Workspace) IsZero() bool { return w.Kind == "" || w.ID == 0 }

func (w Workspace) String() string { return fmt.Sprintf("%s:%d", w.Kind, w.ID) }

// ThesisWorkspace 论文工作区
func ThesisWorkspace(id uint) Workspace { return Workspace{Kind: WorkspaceThesis, ID: id} }

// ProjectWorkspace 科研项目工作区
func ProjectWorkspace(id uint) Workspace { return Workspace{Kind: WorkspaceProject, ID: id} }

// WorkspaceOf 由可空的 thesis_id / project_id 推导工作区
func WorkspaceOf(thesisID, projectID *uint) Workspace {
	if thesisID != nil {
		return ThesisWorkspace(*thesisID)
	}
	if projectID != nil {
		return ProjectWorkspace(*projectID)
	}
	return Workspace{}
}
