package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"superviseme/backend/config"
	"superviseme/backend/internal/dto"
	"superviseme/backend/internal/model"
	"superviseme/backend/internal/repository"
	"superviseme/backend/pkg/mail"
)

// ── 周报模块业务错误 ──

var (
	ErrDigestRunning    = errors.New("周报任务正在执行")
	ErrDigestNoStudents = errors.New("该导师暂无指导学生")
)

const (
	digestLockName = "digest:lock"
	digestLockTTL  = 30 * time.Minute
	digestTemplate = "weekly_digest"
	dateLayout     = "2006-01-02"
)

// Locker 跨进程互斥锁（Redis 实现），为 nil 时不加锁
type Locker interface {
	AcquireLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// DigestService 周报业务接口
type DigestService interface {
	// Run 为每位有学生的导师发送一封周报。force 或手动触发时不做按周去重
	Run(ctx context.Context, trigger string, force bool) (*dto.DigestRunResult, error)
	// BuildDigest 计算单个导师的周报，无学生时返回 nil
	BuildDigest(ctx context.Context, supervisor *model.User, now time.Time) (*dto.WeeklyDigest, error)
	LastRun(ctx context.Context) (*dto.DigestRunResult, error)
	// ExportForSupervisor 按当前时间计算导师周报并导出为 Excel
	ExportForSupervisor(ctx context.Context, supervisorID uint) (*bytes.Buffer, string, error)
}

type digestService struct {
	repo    *repository.Repository
	sender  mail.Sender
	locker  Locker
	cfg     config.DigestConfig
	baseURL string
	logger  *zap.Logger
	now     func() time.Time
}

// NewDigestService 创建 DigestService 实例
func NewDigestService(
	repo *repository.Repository,
	sender mail.Sender,
	locker Locker,
	cfg config.DigestConfig,
	baseURL string,
	logger *zap.Logger,
) DigestService {
	return &digestService{
		repo:    repo,
		sender:  sender,
		locker:  locker,
		cfg:     cfg,
		baseURL: baseURL,
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── Run ──────────────────────

func (s *digestService) Run(ctx context.Context, trigger string, force bool) (*dto.DigestRunResult, error) {
	startedAt := s.now()
	if force {
		trigger = model.DigestTriggerManual
	}
	result := &dto.DigestRunResult{
		Trigger:   trigger,
		WeekKey:   model.WeekKey(startedAt),
		StartedAt: startedAt,
	}

	if s.locker != nil {
		token := uuid.NewString()
		ok, err := s.locker.AcquireLock(ctx, digestLockName, token, digestLockTTL)
		if err != nil {
			// Redis 不可用时退化为仅依赖数据库去重
			s.logger.Warn("获取周报锁失败，继续执行", zap.Error(err))
		} else if !ok {
			return nil, ErrDigestRunning
		} else {
			defer func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), digestLockName, token); err != nil {
					s.logger.Warn("释放周报锁失败", zap.Error(err))
				}
			}()
		}
	}

	run := &model.DigestRun{WeekKey: result.WeekKey, TriggerType: trigger, StartedAt: startedAt}
	claimed, err := s.repo.DigestRun.Claim(ctx, run)
	if err != nil {
		s.logger.Error("登记周报执行失败", zap.String("week", result.WeekKey), zap.Error(err))
		return nil, err
	}
	if !claimed {
		s.logger.Info("本周周报已发送，跳过", zap.String("week", result.WeekKey))
		result.Success = true
		result.Deduped = true
		result.Message = fmt.Sprintf("weekly digest for %s already sent", result.WeekKey)
		result.FinishedAt = s.now()
		return result, nil
	}

	supervisors, err := s.repo.User.ListByRole(ctx, model.RoleSupervisor)
	if err != nil {
		s.logger.Error("查询导师列表失败", zap.Error(err))
		return nil, err
	}

	for i := range supervisors {
		sup := &supervisors[i]
		digest, err := s.BuildDigest(ctx, sup, startedAt)
		if err != nil {
			result.Failed++
			s.logger.Error("生成周报失败", zap.Uint("supervisor_id", sup.ID), zap.Error(err))
			continue
		}
		if digest == nil {
			result.Skipped++
			continue
		}
		if err := s.send(ctx, sup, digest); err != nil {
			result.Failed++
			s.logger.Error("发送周报失败", zap.Uint("supervisor_id", sup.ID), zap.String("email", sup.Email), zap.Error(err))
			continue
		}
		result.Sent++
	}

	result.FinishedAt = s.now()
	result.Success = result.Failed == 0
	result.Message = fmt.Sprintf("sent %d, failed %d, skipped %d", result.Sent, result.Failed, result.Skipped)
	if err := s.repo.DigestRun.Finish(ctx, run.ID, result.Sent, result.Failed, result.Skipped, result.FinishedAt); err != nil {
		s.logger.Warn("更新周报执行记录失败", zap.Uint("run_id", run.ID), zap.Error(err))
	}

	s.logger.Info("周报任务完成",
		zap.String("trigger", trigger),
		zap.String("week", result.WeekKey),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ────────────────────── BuildDigest ──────────────────────

func (s *digestService) BuildDigest(ctx context.Context, supervisor *model.User, now time.Time) (*dto.WeeklyDigest, error) {
	theses, err := s.repo.Thesis.ListBySupervisor(ctx, supervisor.ID)
	if err != nil {
		return nil, err
	}

	since := now.AddDate(0, 0, -s.cfg.LookbackDays)
	inactiveBefore := now.AddDate(0, 0, -s.cfg.InactivityDays)

	digest := &dto.WeeklyDigest{
		SupervisorID:   supervisor.ID,
		SupervisorName: supervisor.FullName(),
		PeriodStart:    since.Format(dateLayout),
		PeriodEnd:      now.Format(dateLayout),
		BaseURL:        s.baseURL,
	}
	for i := range theses {
		th := &theses[i]
		if th.AuthorID == nil || th.Author == nil {
			continue
		}
		count, err := s.repo.Update.CountByAuthorSince(ctx, th.ID, *th.AuthorID, since)
		if err != nil {
			return nil, err
		}

		activity := dto.StudentActivity{
			StudentID:    th.Author.ID,
			StudentName:  th.Author.FullName(),
			ThesisTitle:  th.Title,
			UpdateCount:  count,
			LastActivity: "never",
			Inactive:     true,
		}
		if last := th.Author.LastActivity; last != nil {
			activity.LastActivity = last.Format("2006-01-02 15:04")
			activity.Inactive = last.Before(inactiveBefore)
		}

		digest.Students = append(digest.Students, activity)
		digest.TotalUpdates += count
		if activity.Inactive {
			digest.InactiveCount++
		}
	}

	if len(digest.Students) == 0 {
		return nil, nil
	}
	return digest, nil
}

func (s *digestService) send(ctx context.Context, supervisor *model.User, digest *dto.WeeklyDigest) error {
	text, html, err := mail.Render(digestTemplate, digest)
	if err != nil {
		return err
	}
	workbook, filename, err := ExportDigestWorkbook(digest)
	if err != nil {
		return fmt.Errorf("生成周报附件失败: %w", err)
	}

	msg := &mail.Message{
		To:          []netmail.Address{{Name: supervisor.FullName(), Address: supervisor.Email}},
		Subject:     fmt.Sprintf("Weekly supervision digest %s – %s", digest.PeriodStart, digest.PeriodEnd),
		TextContent: text,
		HTMLContent: html,
		Attachments: []mail.Attachment{{
			Content:     workbook.Bytes(),
			ContentType: digestXLSXType,
			Filename:    filename,
		}},
	}
	return s.sender.Send(ctx, msg)
}

func (s *digestService) LastRun(ctx context.Context) (*dto.DigestRunResult, error) {
	run, err := s.repo.DigestRun.Latest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	result := &dto.DigestRunResult{
		Success:   run.FinishedAt != nil && run.Failed == 0,
		Trigger:   run.TriggerType,
		WeekKey:   run.WeekKey,
		Sent:      run.Sent,
		Failed:    run.Failed,
		Skipped:   run.Skipped,
		StartedAt: run.StartedAt,
	}
	if run.FinishedAt != nil {
		result.FinishedAt = *run.FinishedAt
		result.Message = fmt.Sprintf("sent %d, failed %d, skipped %d", run.Sent, run.Failed, run.Skipped)
	} else {
		result.Message = "running or interrupted"
	}
	return result, nil
}

func (s *digestService) ExportForSupervisor(ctx context.Context, supervisorID uint) (*bytes.Buffer, string, error) {
	supervisor, err := s.repo.User.GetByID(ctx, supervisorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}

	digest, err := s.BuildDigest(ctx, supervisor, s.now())
	if err != nil {
		return nil, "", err
	}
	if digest == nil {
		return nil, "", ErrDigestNoStudents
	}
	return ExportDigestWorkbook(digest)
}
