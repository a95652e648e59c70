package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/sift-money/sift/internal/model"
)

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return ctx.Err()
}

func validateString(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("transaction cannot be nil")
	}
	if err := validateString(txn.ID, "transaction ID"); err != nil {
		return err
	}
	if err := validateString(txn.Owner, "transaction owner"); err != nil {
		return err
	}
	if err := validateString(txn.Hash, "transaction hash"); err != nil {
		return err
	}
	if err := validateString(txn.Description, "transaction description"); err != nil {
		return err
	}
	if txn.Amount.IsNegative() {
		return fmt.Errorf("transaction amount cannot be negative")
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}
	return nil
}

func validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("rule cannot be nil")
	}
	if err := validateString(rule.Owner, "rule owner"); err != nil {
		return err
	}
	if err := validateString(rule.Name, "rule name"); err != nil {
		return err
	}
	if len(rule.Keywords) == 0 {
		return fmt.Errorf("rule must have at least one keyword")
	}
	for _, kw := range rule.Keywords {
		if strings.TrimSpace(kw.Pattern) == "" {
			return fmt.Errorf("rule keyword pattern cannot be empty")
		}
	}
	if rule.CategoryID <= 0 {
		return fmt.Errorf("rule must reference a category")
	}
	if rule.Confidence < 0 || rule.Confidence > 1 {
		return fmt.Errorf("rule confidence must be in [0,1], got %f", rule.Confidence)
	}
	if rule.AmountMin != nil && rule.AmountMax != nil && rule.AmountMax.LessThan(*rule.AmountMin) {
		return fmt.Errorf("rule amount range is inverted")
	}
	return nil
}
