package main

import (
	"fmt"

	"github.com/sift-money/sift/internal/cli"
	"github.com/sift-money/sift/internal/learn"
	"github.com/spf13/cobra"
)

func maintainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Prune stale rules and decay unused ones",
		Long: `Maintain removes learned rules that are old and were almost never used,
and lowers the confidence of rules that have not matched anything recently.
Run it occasionally to keep suggestions sharp.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			owner, err := resolveOwner(cmd)
			if err != nil {
				return err
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			result, err := learn.NewStore(store, learn.DefaultParams()).Maintain(ctx, owner)
			if err != nil {
				return fmt.Errorf("maintenance failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf(
				"Maintenance complete: pruned %d rules, decayed %d", result.Pruned, result.Decayed)))
			return nil
		},
	}

	cmd.Flags().String("owner", "", "owner identity")

	return cmd
}
