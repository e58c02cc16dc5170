package dto

import "time"

// ── 周报模块 DTO ──

// StudentActivity 周报中单个学生的活动情况
type StudentActivity struct {
	StudentID    uint
	StudentName  string
	ThesisTitle  string
	UpdateCount  int64
	LastActivity string // 从未记录时为 "never"
	Inactive     bool
}

// WeeklyDigest 单个导师的周报内容（邮件模板数据）
type WeeklyDigest struct {
	SupervisorID   uint
	SupervisorName string
	PeriodStart    string
	PeriodEnd      string
	TotalUpdates   int64
	InactiveCount  int
	BaseURL        string
	Students       []StudentActivity
}

// DigestRunResult 一次周报执行的汇总，手动触发直接返回给调用方
type DigestRunResult struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	Trigger    string    `json:"trigger"`
	WeekKey    string    `json:"week_key"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Deduped    bool      `json:"deduped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SchedulerStatus 周报调度器状态
type SchedulerStatus struct {
	Running  bool             `json:"running"`
	Schedule string           `json:"schedule"`
	Timezone string           `json:"timezone"`
	NextRun  *time.Time       `json:"next_run,omitempty"`
	LastRun  *DigestRunResult `json:"last_run,omitempty"`
}

// RescheduleRequest 调整周报时间
// Weekday 取 0-6（0 为周日），与 cron 表达式一致
type RescheduleRequest struct {
	Weekday *int `json:"weekday" binding:"required,min=0,max=6"`
	Hour    *int `json:"hour"    binding:"required,min=0,max=23"`
	Minute  *int `json:"minute"  binding:"required,min=0,max=59"`
}
