package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"superviseme/backend/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Bearer tokens for existing users",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Issue an access token for a user (uses the user's stored role)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenIssue,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid user id %q", args[0])
	}

	env, err := openEnv()
	if err != nil {
		return err
	}
	defer env.close()

	user, err := env.repo.User.GetByID(cmd.Context(), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d not found", id)
		}
		return err
	}

	token, err := jwt.NewManager(&env.cfg.Auth).GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
