package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superviseme/backend/internal/model"
	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/mail"
	"superviseme/backend/pkg/redis"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Weekly supervisor digest",
}

var digestRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Send the weekly digest now",
	Long: `Send the weekly digest to every supervisor with at least one student.

By default the run is recorded as manual and is never deduplicated.
With --scheduled the run behaves like the cron job: it is skipped if a
scheduled digest was already sent for the current ISO week.`,
	Args: cobra.NoArgs,
	RunE: runDigestRun,
}

var digestStatusCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recent recorded digest run",
	Args:  cobra.NoArgs,
	RunE:  runDigestLast,
}

var digestRunScheduled bool

func init() {
	rootCmd.AddCommand(digestCmd)
	digestCmd.AddCommand(digestRunCmd, digestStatusCmd)
	digestRunCmd.Flags().BoolVar(&digestRunScheduled, "scheduled", false, "record as a scheduled run and honor weekly dedupe")
}

func newDigestService(env *runtimeEnv) (service.DigestService, func(), error) {
	sender, err := mail.NewSender(&env.cfg.Mail, env.logger)
	if err != nil {
		return nil, nil, err
	}

	var locker service.Locker
	cleanup := func() {}
	if rdb, err := redis.NewClient(&env.cfg.Redis, env.logger); err != nil {
		env.logger.Warn("Redis 不可用，周报不加分布式锁", zap.Error(err))
	} else {
		locker = rdb
		cleanup = func() { rdb.Close() }
	}

	svc := service.NewDigestService(env.repo, sender, locker, env.cfg.Digest, env.cfg.Server.BaseURL, env.logger)
	return svc, cleanup, nil
}

func runDigestRun(cmd *cobra.Command, _ []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	digest, cleanup, err := newDigestService(env)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trigger := model.DigestTriggerManual
	if digestRunScheduled {
		trigger = model.DigestTriggerScheduled
	}
	result, err := digest.Run(ctx, trigger, !digestRunScheduled)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runDigestLast(cmd *cobra.Command, _ []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	digest, cleanup, err := newDigestService(env)
	if err != nil {
		return err
	}
	defer cleanup()

	last, err := digest.LastRun(cmd.Context())
	if err != nil {
		return err
	}
	if last == nil {
		cmd.Println("no digest has run yet")
		return nil
	}
	return printJSON(cmd.OutOrStdout(), last)
}
