package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/cli"
	"github.com/sift-money/sift/internal/model"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage suggestion rules",
	}

	cmd.PersistentFlags().String("owner", "", "owner identity")

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all rules, including inactive ones",
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

			rules, err := store.ListRules(ctx, owner)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No rules yet"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Rules"))
			for _, rule := range rules {
				var keywords []string
				for _, kw := range rule.Keywords {
					keywords = append(keywords, kw.Pattern)
				}

				status := ""
				if !rule.IsActive {
					status = cli.SubtleStyle.Render(" (inactive)")
				}
				fmt.Printf("%4d  %-30s  %.2f  uses=%-3d  [%s]%s\n",
					rule.ID, truncate(rule.Name, 30), rule.Confidence,
					rule.UseCount, strings.Join(keywords, ", "), status)
			}

			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a manual rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			owner, err := resolveOwner(cmd)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("name")
			categoryName, _ := cmd.Flags().GetString("category")
			keywordList, _ := cmd.Flags().GetString("keywords")
			priority, _ := cmd.Flags().GetInt("priority")
			amountMin, _ := cmd.Flags().GetString("amount-min")
			amountMax, _ := cmd.Flags().GetString("amount-max")
			typeFilter, _ := cmd.Flags().GetString("type")

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.GetCategoryByName(ctx, categoryName)
			if err != nil {
				return fmt.Errorf("unknown category %q", categoryName)
			}

			rule := &model.Rule{
				Owner:      owner,
				Name:       name,
				CategoryID: category.ID,
				Confidence: 0.7,
				Priority:   priority,
				IsActive:   true,
			}
			for _, kw := range strings.Split(keywordList, ",") {
				kw = strings.TrimSpace(kw)
				if kw == "" {
					continue
				}
				rule.Keywords = append(rule.Keywords, model.RuleKeyword{Pattern: kw, Weight: rule.Confidence})
			}

			if rule.AmountMin, err = parseAmountFlag(amountMin); err != nil {
				return err
			}
			if rule.AmountMax, err = parseAmountFlag(amountMax); err != nil {
				return err
			}
			if typeFilter != "" {
				t := model.TransactionType(typeFilter)
				rule.TypeFilter = &t
			}

			if err := store.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created rule %q", name)))
			return nil
		},
	}

	cmd.Flags().String("name", "", "rule name")
	cmd.Flags().String("category", "", "target category name")
	cmd.Flags().String("keywords", "", "comma-separated description keywords")
	cmd.Flags().Int("priority", 0, "rule priority, higher wins ties")
	cmd.Flags().String("amount-min", "", "minimum amount to match")
	cmd.Flags().String("amount-max", "", "maximum amount to match")
	cmd.Flags().String("type", "", "transaction type filter (income, expense, transfer)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("keywords")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}
}

func parseAmountFlag(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return &d, nil
}
