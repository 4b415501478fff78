package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetPasswordCmd = &cobra.Command{
		RunE:  runResetPassword,
		Use:   "reset-password",
		Short: "overwrite a user's password and end their session",
	}
	resetEmail    string
	resetPassword string
)

func init() {
	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "account email")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "new password, at least 6 characters")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	_ = resetPasswordCmd.MarkFlagRequired("password")
}

func runResetPassword(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Users.SetPassword(ctx, resetEmail, resetPassword); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "password for %s has been reset\n", resetEmail)
	return nil
}
