// Package normalize maps heterogeneous statement rows into canonical raw
// transactions, resolving locale-specific number and date formats.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/parser"
)

// fieldAliases maps each canonical field to an ordered list of header
// aliases. Matching is case-insensitive by substring; the first alias that
// matches any column wins.
var fieldAliases = map[string][]string{
	"date":        {"date", "data", "fecha", "datum", "dia"},
	"description": {"descri", "description", "histor", "memo", "detail", "detalhe", "narrative", "payee", "name", "merchant"},
	"amount":      {"amount", "valor", "value", "montante", "importe", "quantia"},
	"type":        {"type", "tipo", "direction", "movimento", "dc"},
	"category":    {"categor", "rubrica"},
	"account":     {"account", "conta", "entity", "entidade", "banco"},
	"tags":        {"tag", "etiqueta", "label"},
}

// Canonical fields resolved in this order; the first three are mandatory.
var canonicalFields = []string{"date", "description", "amount", "type", "category", "account", "tags"}

// Config tunes normalizer behavior.
type Config struct {
	// Now supplies the clock used for the unparseable-date fallback.
	// Defaults to time.Now.
	Now func() time.Time
	// RejectUnparseableDates turns the fallback-to-today behavior into a
	// hard row rejection.
	RejectUnparseableDates bool
}

// Normalizer converts parsed rows into raw transactions.
type Normalizer struct {
	now    func() time.Time
	strict bool
}

// NewNormalizer creates a normalizer with the given configuration.
func NewNormalizer(cfg Config) *Normalizer {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Normalizer{now: now, strict: cfg.RejectUnparseableDates}
}

// Normalize resolves a row into a raw transaction. A row is rejected with a
// diagnostic when date, description, or amount cannot all be resolved.
func (n *Normalizer) Normalize(row parser.Row) (*model.RawTransaction, *parser.Diagnostic) {
	fields := n.discoverFields(row.Fields)

	description := strings.TrimSpace(fields["description"])
	if description == "" {
		return nil, &parser.Diagnostic{Line: row.Line, Message: "missing description"}
	}

	rawAmount := fields["amount"]
	amount, negative, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, &parser.Diagnostic{Line: row.Line, Message: fmt.Sprintf("unparseable amount %q", rawAmount)}
	}

	date, assumed := n.parseDate(fields["date"])
	if assumed && n.strict {
		return nil, &parser.Diagnostic{Line: row.Line, Message: fmt.Sprintf("unparseable date %q", fields["date"])}
	}

	txn := &model.RawTransaction{
		Date:         date,
		Description:  description,
		Amount:       amount,
		Type:         inferType(fields["type"], negative),
		CategoryHint: strings.TrimSpace(fields["category"]),
		AccountHint:  strings.TrimSpace(fields["account"]),
		Tags:         splitTags(fields["tags"]),
		SourceRow:    row.Fields,
		SourceLine:   row.Line,
		DateAssumed:  assumed,
	}

	return txn, nil
}

// discoverFields resolves canonical field names against the row's columns.
// Column names are walked in sorted order so that an alias matching two
// headers resolves the same way on every run.
func (n *Normalizer) discoverFields(columns map[string]string) map[string]string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := make(map[string]string, len(canonicalFields))
	for _, field := range canonicalFields {
	aliases:
		for _, alias := range fieldAliases[field] {
			for _, name := range names {
				if strings.Contains(strings.ToLower(name), alias) {
					resolved[field] = columns[name]
					break aliases
				}
			}
		}
	}

	return resolved
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// typeKeywords maps locale keywords found in a type column to a transaction
// type.
var typeKeywords = map[string]model.TransactionType{
	"income":        model.TypeIncome,
	"receita":       model.TypeIncome,
	"credit":        model.TypeIncome,
	"crédito":       model.TypeIncome,
	"credito":       model.TypeIncome,
	"entrada":       model.TypeIncome,
	"expense":       model.TypeExpense,
	"despesa":       model.TypeExpense,
	"debit":         model.TypeExpense,
	"débito":        model.TypeExpense,
	"debito":        model.TypeExpense,
	"saída":         model.TypeExpense,
	"saida":         model.TypeExpense,
	"transfer":      model.TypeTransfer,
	"transferencia": model.TypeTransfer,
	"transferência": model.TypeTransfer,
}

// inferType applies the precedence: explicit type field, then sign of the
// original amount string, then keyword match, then expense.
func inferType(typeField string, negative bool) model.TransactionType {
	cleaned := strings.ToLower(strings.TrimSpace(typeField))

	switch model.TransactionType(cleaned) {
	case model.TypeIncome, model.TypeExpense, model.TypeTransfer:
		return model.TransactionType(cleaned)
	}

	if negative {
		return model.TypeExpense
	}

	for keyword, t := range typeKeywords {
		if cleaned != "" && strings.Contains(cleaned, keyword) {
			return t
		}
	}

	return model.TypeExpense
}
