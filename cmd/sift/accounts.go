package main

import (
	"fmt"

	"github.com/sift-money/sift/internal/cli"
	"github.com/spf13/cobra"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}

	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsAddCmd())

	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.GetAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			if len(accounts) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No accounts yet"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Accounts"))
			for _, account := range accounts {
				fmt.Printf("%4d  %-30s  %s\n", account.ID, account.Name, account.Type)
			}

			return nil
		},
	}
}

func accountsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			accountType, _ := cmd.Flags().GetString("type")

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account, err := store.CreateAccount(ctx, args[0], accountType)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created account %q (%d)", account.Name, account.ID)))
			return nil
		},
	}

	cmd.Flags().String("type", "checking", "account type (checking, savings, credit, cash)")

	return cmd
}
