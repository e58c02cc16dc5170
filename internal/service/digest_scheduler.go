package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
)

// digestJobTimeout 单次定时周报的最长执行时间
const digestJobTimeout = 30 * time.Minute

// DigestScheduler 每周定时执行周报任务，独立于请求处理
type DigestScheduler struct {
	digest DigestService
	loc    *time.Location
	logger *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	spec    string
	running bool
	last    *dto.DigestRunResult
}

// NewDigestScheduler 创建调度器；spec 为五段 cron 表达式（分 时 日 月 周）
func NewDigestScheduler(digest DigestService, spec string, loc *time.Location, logger *zap.Logger) (*DigestScheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("无效的周报 cron 表达式 %q: %w", spec, err)
	}
	return &DigestScheduler{
		digest: digest,
		loc:    loc,
		logger: logger,
		spec:   spec,
		cron:   newDigestCron(loc, logger),
	}, nil
}

// newDigestCron 任务 panic 时记录日志并恢复，不影响服务进程
func newDigestCron(loc *time.Location, logger *zap.Logger) *cron.Cron {
	cl := cronLogger{logger.Sugar()}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
}

// cronLogger 将 cron 内部日志转发到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Start 注册任务并启动后台调度
func (s *DigestScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	id, err := s.cron.AddFunc(s.spec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("注册周报任务失败: %w", err)
	}
	s.entry = id
	s.cron.Start()
	s.running = true

	s.logger.Info("周报调度器已启动",
		zap.String("schedule", s.spec),
		zap.String("timezone", s.loc.String()),
		zap.Time("next_run", s.cron.Entry(id).Next),
	)
	return nil
}

// Stop 停止调度并等待正在执行的任务结束，ctx 超时后直接返回
func (s *DigestScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.cron.Stop()
	s.cron.Remove(s.entry)
	s.entry = 0
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.Info("周报调度器已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TriggerNow 同步执行一次周报，错误折叠进结果
func (s *DigestScheduler) TriggerNow(ctx context.Context) *dto.DigestRunResult {
	return s.execute(ctx, model.DigestTriggerManual)
}

// Reschedule 修改每周执行时间；weekday 0 为周日
func (s *DigestScheduler) Reschedule(weekday, hour, minute int) error {
	if weekday < 0 || weekday > 6 || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("无效的周报时间: weekday=%d hour=%d minute=%d", weekday, hour, minute)
	}
	spec := fmt.Sprintf("%d %d * * %d", minute, hour, weekday)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		id, err := s.cron.AddFunc(spec, s.runScheduled)
		if err != nil {
			return fmt.Errorf("注册周报任务失败: %w", err)
		}
		s.cron.Remove(s.entry)
		s.entry = id
	}
	s.spec = spec
	s.logger.Info("周报时间已调整", zap.String("schedule", spec))
	return nil
}

// Status 当前调度状态
func (s *DigestScheduler) Status() dto.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := dto.SchedulerStatus{
		Running:  s.running,
		Schedule: s.spec,
		Timezone: s.loc.String(),
		LastRun:  s.last,
	}
	if s.running {
		if next := s.cron.Entry(s.entry).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *DigestScheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), digestJobTimeout)
	defer cancel()
	s.execute(ctx, model.DigestTriggerScheduled)
}

func (s *DigestScheduler) execute(ctx context.Context, trigger string) *dto.DigestRunResult {
	startedAt := time.Now()
	result, err := s.digest.Run(ctx, trigger, trigger == model.DigestTriggerManual)
	if err != nil {
		s.logger.Error("周报任务失败", zap.String("trigger", trigger), zap.Error(err))
		result = &dto.DigestRunResult{
			Success:    false,
			Message:    err.Error(),
			Trigger:    trigger,
			WeekKey:    model.WeekKey(startedAt),
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		}
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	return result
}
