package main

import (
	"fmt"

	"github.com/sift-money/sift/internal/cli"
	"github.com/sift-money/sift/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
	}

	cmd.AddCommand(categoriesListCmd())
	cmd.AddCommand(categoriesAddCmd())

	return cmd
}

func categoriesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No categories yet"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Categories"))
			for _, category := range categories {
				fmt.Printf("%4d  %-30s  %s\n", category.ID, category.Name, category.Type)
			}

			return nil
		},
	}
}

func categoriesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			categoryType, _ := cmd.Flags().GetString("type")
			switch model.CategoryType(categoryType) {
			case model.CategoryTypeIncome, model.CategoryTypeExpense, model.CategoryTypeSystem:
			default:
				return fmt.Errorf("invalid category type %q", categoryType)
			}

			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := store.CreateCategory(ctx, args[0], model.CategoryType(categoryType))
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (%d)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().String("type", "expense", "category type (income, expense, system)")

	return cmd
}
