package model

import (
	"fmt"
	"time"
)

// 周报触发方式
const (
	DigestTriggerScheduled = "scheduled"
	DigestTriggerManual    = "manual"
)

// DigestRun 周报执行记录 — 对应 digest_runs
// 定时触发按 ISO 周去重（部分唯一索引），手动触发不受限制
type DigestRun struct {
	ID          uint       `gorm:"primaryKey"                 json:"id"`
	WeekKey     string     `gorm:"type:varchar(10);not null"  json:"week_key"`
	TriggerType string     `gorm:"type:varchar(20);not null"  json:"trigger_type"`
	StartedAt   time.Time  `gorm:"not null"                   json:"started_at"`
	FinishedAt  *time.Time `                                  json:"finished_at,omitempty"`
	Sent        int        `gorm:"not null;default:0"         json:"sent"`
	Failed      int        `gorm:"not null;default:0"         json:"failed"`
	Skipped     int        `gorm:"not null;default:0"         json:"skipped"`
}

// TableName 指定表名
func (DigestRun) TableName() string { return "digest_runs" }

// WeekKey 返回 t 所在 ISO 周的标识，如 2026-W43
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
