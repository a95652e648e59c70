package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/sift-money/sift/internal/cli"
	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/learn"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/parser"
	"github.com/sift-money/sift/internal/session"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import a statement and review suggested transactions",
		Long: `Import parses a statement export (or stdin when no file is given),
suggests a category for every row, flags probable duplicates, and walks you
through reviewing each row. Nothing is saved until you finish the review.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().String("owner", "", "owner identity for imported transactions")
	cmd.Flags().String("format", "auto", "input format (auto, csv, xlsx, ofx, text)")
	cmd.Flags().Bool("strict-dates", false, "reject rows with unparseable dates instead of assuming today")
	cmd.Flags().BoolP("yes", "y", false, "accept every suggestion without prompting")
	cmd.Flags().Bool("dry-run", false, "review without persisting anything")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	owner, err := resolveOwner(cmd)
	if err != nil {
		return err
	}

	format := parser.Format(cmd.Flag("format").Value.String())
	strictDates, _ := cmd.Flags().GetBool("strict-dates")
	acceptAll, _ := cmd.Flags().GetBool("yes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	blob, source, err := readInput(args)
	if err != nil {
		return err
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	processor := newProcessor(store, strictDates)

	fmt.Printf("Importing %s...\n", source)
	imported, err := processor.Run(ctx, blob, format, owner)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	printDiagnostics(imported)
	fmt.Println(cli.RenderBox("Import Session", formatStats(imported.Stats)))

	if len(imported.Rows) == 0 {
		fmt.Println(cli.FormatWarning("No usable rows found in input"))
		return nil
	}

	if acceptAll {
		if err := acceptAllRows(ctx, processor, imported); err != nil {
			return err
		}
	} else {
		done, err := reviewRows(ctx, processor, store, imported)
		if err != nil {
			return err
		}
		if !done {
			processor.Cancel(imported)
			fmt.Println(cli.FormatWarning("Import cancelled, nothing saved"))
			return nil
		}
	}

	if dryRun {
		fmt.Println(cli.FormatWarning("Dry run, nothing saved"))
		return nil
	}

	ids, err := processor.Finalize(ctx, imported)
	if err != nil {
		if common.IsRetryable(err) {
			return fmt.Errorf("failed to save transactions, re-running the import is safe: %w", err)
		}
		return fmt.Errorf("failed to save transactions: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved %d transactions", len(ids))))
	return nil
}

// readInput loads the statement blob from a file argument or stdin.
func readInput(args []string) ([]byte, string, error) {
	if len(args) == 1 {
		blob, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return blob, args[0], nil
	}

	blob, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return blob, "stdin", nil
}

func printDiagnostics(imported *model.ImportSession) {
	for _, diag := range imported.Diagnostics {
		fmt.Println(cli.FormatWarning(diag))
	}
}

func formatStats(stats model.SessionStats) string {
	return fmt.Sprintf("Rows:            %d\nRejected:        %d\nDuplicates:      %d\nLow confidence:  %d",
		stats.Rows, stats.Rejected, stats.Duplicates, stats.LowConfidence)
}

// acceptAllRows applies an accept decision to every row, feeding the
// learning store along the way.
func acceptAllRows(ctx context.Context, processor *session.Processor, imported *model.ImportSession) error {
	bar := progressbar.NewOptions(len(imported.Rows),
		progressbar.OptionSetDescription("Accepting suggestions"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	for i := range imported.Rows {
		if err := processor.ApplyDecision(ctx, imported, i, learn.Decision{Kind: learn.DecisionAccepted}); err != nil {
			return fmt.Errorf("failed to record decision for row %d: %w", i, err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	return nil
}

// reviewRows walks the user through each row. Returns false when the user
// quits, which discards the session.
func reviewRows(ctx context.Context, processor *session.Processor, store directoryLookup, imported *model.ImportSession) (bool, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println(cli.FormatTitle("Review"))
	fmt.Println(cli.SubtleStyle.Render("[a]ccept  [e]dit  [r]eject  [A]ccept remaining  [q]uit"))

	for i := range imported.Rows {
		row := &imported.Rows[i]
		if row.Status != model.StatusPending {
			continue
		}

		fmt.Println()
		fmt.Println(formatRow(row))

		decision, remaining, quit, err := promptDecision(ctx, reader, store, row)
		if err != nil {
			return false, err
		}
		if quit {
			return false, nil
		}

		if err := processor.ApplyDecision(ctx, imported, i, decision); err != nil {
			return false, fmt.Errorf("failed to record decision for row %d: %w", i, err)
		}

		if remaining {
			for j := i + 1; j < len(imported.Rows); j++ {
				if imported.Rows[j].Status != model.StatusPending {
					continue
				}
				if err := processor.ApplyDecision(ctx, imported, j, learn.Decision{Kind: learn.DecisionAccepted}); err != nil {
					return false, fmt.Errorf("failed to record decision for row %d: %w", j, err)
				}
			}
			break
		}
	}

	return true, nil
}

// directoryLookup is the slice of storage the review prompt needs to resolve
// corrected category and account names.
type directoryLookup interface {
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	GetAccountByName(ctx context.Context, name string) (*model.Account, error)
}

func formatRow(row *model.EnrichedTransaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %-40s  %s %s",
		row.Raw.Date.Format("2006-01-02"),
		truncate(row.Raw.Description, 40),
		row.Raw.Amount.StringFixed(2),
		row.Suggestion.Type)

	if row.Raw.DateAssumed {
		b.WriteString("  " + cli.SubtleStyle.Render("(date assumed)"))
	}

	b.WriteString("\n  ")
	if row.Suggestion.CategoryName != "" {
		confidence := fmt.Sprintf("%.0f%%", row.Suggestion.CategoryConfidence*100)
		line := fmt.Sprintf("→ %s (%s)", row.Suggestion.CategoryName, confidence)
		if row.Suggestion.LowConfidence() {
			b.WriteString(cli.WarningStyle.Render(line))
		} else {
			b.WriteString(cli.SuccessStyle.Render(line))
		}
	} else {
		b.WriteString(cli.SubtleStyle.Render("→ no category suggestion"))
	}

	if row.Suggestion.EntityName != "" {
		fmt.Fprintf(&b, "  %s", cli.SubtleStyle.Render("account: "+row.Suggestion.EntityName))
	}

	if row.Duplicate != nil {
		fmt.Fprintf(&b, "\n  %s", cli.WarningStyle.Render(fmt.Sprintf(
			"%s possible duplicate of %d stored transaction(s) (%.0f%%)",
			cli.DuplicateIcon, len(row.Duplicate.Candidates), row.Duplicate.Confidence*100)))
	}

	return b.String()
}

func promptDecision(ctx context.Context, reader *bufio.Reader, store directoryLookup, row *model.EnrichedTransaction) (learn.Decision, bool, bool, error) {
	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return learn.Decision{}, false, true, nil
			}
			return learn.Decision{}, false, false, fmt.Errorf("failed to read input: %w", err)
		}

		switch strings.TrimSpace(input) {
		case "a", "":
			return learn.Decision{Kind: learn.DecisionAccepted}, false, false, nil
		case "A":
			return learn.Decision{Kind: learn.DecisionAccepted}, true, false, nil
		case "r":
			return learn.Decision{Kind: learn.DecisionRejected}, false, false, nil
		case "q":
			return learn.Decision{}, false, true, nil
		case "e":
			decision, err := promptCorrection(ctx, reader, store)
			if err != nil {
				fmt.Println(cli.FormatError(err.Error()))
				continue
			}
			return decision, false, false, nil
		case "?":
			printRationale(row)
		default:
			fmt.Println(cli.SubtleStyle.Render("[a]ccept  [e]dit  [r]eject  [A]ccept remaining  [q]uit  [?] rationale"))
		}
	}
}

func promptCorrection(ctx context.Context, reader *bufio.Reader, store directoryLookup) (learn.Decision, error) {
	fmt.Print("category: ")
	name, err := reader.ReadString('\n')
	if err != nil {
		return learn.Decision{}, fmt.Errorf("failed to read input: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return learn.Decision{}, fmt.Errorf("category name cannot be empty")
	}

	category, err := store.GetCategoryByName(ctx, name)
	if err != nil {
		return learn.Decision{}, common.NewUserError(fmt.Sprintf("unknown category %q", name), err)
	}

	decision := learn.Decision{Kind: learn.DecisionCorrected, CategoryID: category.ID}

	fmt.Print("account (optional): ")
	accountName, err := reader.ReadString('\n')
	if err != nil {
		return learn.Decision{}, fmt.Errorf("failed to read input: %w", err)
	}
	accountName = strings.TrimSpace(accountName)
	if accountName != "" {
		account, err := store.GetAccountByName(ctx, accountName)
		if err != nil {
			return learn.Decision{}, common.NewUserError(fmt.Sprintf("unknown account %q", accountName), err)
		}
		decision.AccountID = &account.ID
	}

	return decision, nil
}

func printRationale(row *model.EnrichedTransaction) {
	for _, entry := range row.Suggestion.Rationale {
		fmt.Printf("  %-12s %.2f  %s\n", entry.Source, entry.Confidence, entry.Explanation)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
