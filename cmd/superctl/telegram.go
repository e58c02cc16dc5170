package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"superviseme/backend/internal/service"
	"superviseme/backend/pkg/telegram"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Telegram bot diagnostics",
}

var telegramVerifyCmd = &cobra.Command{
	Use:   "verify <chat-id>",
	Short: "Check that the active bot can reach a chat",
	Args:  cobra.ExactArgs(1),
	RunE:  runTelegramVerify,
}

var telegramInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the identity of the active bot",
	Args:  cobra.NoArgs,
	RunE:  runTelegramInfo,
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.AddCommand(telegramVerifyCmd, telegramInfoCmd)
}

func newTelegramService(env *runtimeEnv) service.TelegramService {
	return service.NewTelegramService(env.repo, telegram.NewFactory(&env.cfg.Telegram), env.cfg.Server.BaseURL, env.logger)
}

func runTelegramVerify(cmd *cobra.Command, args []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	result := newTelegramService(env).VerifyChat(cmd.Context(), args[0])
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("verification failed: %s", result.Message)
	}
	return nil
}

func runTelegramInfo(cmd *cobra.Command, _ []string) error {
	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	result := newTelegramService(env).BotInfo(cmd.Context())
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("bot unavailable: %s", result.Message)
	}
	return nil
}
