package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLoginCommand(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := passwordOrStdin(cmd, password)
			if err != nil {
				return err
			}
			res, err := a.api.Login(cmd.Context(), username, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", res.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newRegisterCommand(a *app) *cobra.Command {
	var username, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := passwordOrStdin(cmd, password)
			if err != nil {
				return err
			}
			res, err := a.api.Register(cmd.Context(), username, pw, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s\n", res.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (3-32 characters)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.Logout(cmd.Context()); err != nil {
				// The local token is gone either way.
				a.logger.Warn("server logout failed", zap.Error(err))
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

func passwordOrStdin(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", errors.New("password required")
	}
	return line, nil
}
