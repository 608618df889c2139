package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go_netinv/internal/auth"
	"go_netinv/internal/db"
	"go_netinv/internal/model"
	"go_netinv/internal/store"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage operator accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var username, role, department string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operator account",
		Long: `Create an operator account. The password is read from the terminal,
or from NETINV_PASSWORD when stdin is not a terminal.

  netinv user create -u alice -r engineer`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !model.ValidRole(role) {
				return fmt.Errorf("invalid role %q: use admin, engineer or viewer", role)
			}

			password, err := readPassword()
			if err != nil {
				return err
			}
			if err := auth.ValidatePassword(password); err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			gdb, err := db.Open(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			u := &model.User{
				Username:     username,
				PasswordHash: hash,
				Role:         role,
				Status:       model.UserStatusActive,
				Department:   department,
			}
			if err := store.New(gdb).CreateUser(context.Background(), u); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return fmt.Errorf("user %s already exists", username)
				}
				return err
			}
			fmt.Printf("created %s user %s (id %d)\n", role, username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&role, "role", "r", model.RoleViewer, "admin | engineer | viewer")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.MarkFlagRequired("username")
	return cmd
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		if pw := os.Getenv("NETINV_PASSWORD"); pw != "" {
			return pw, nil
		}
		return "", errors.New("stdin is not a terminal and NETINV_PASSWORD is not set")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
