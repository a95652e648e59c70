package parser

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/sift-money/sift/internal/common"
)

var (
	severityCase = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	unclosedTag  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in bank-exported OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	content = severityCase.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML-style exports sometimes drop closing angle brackets.
	content = unclosedTag.ReplaceAllString(content, "$1>")

	return content
}

// parseOFX reads OFX/QFX statement files via ofxgo. Statements that fail to
// decode are skipped; individual transactions become rows keyed like the
// delimited formats.
func parseOFX(ctx context.Context, blob []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := preprocessOFX(string(blob))
	resp, err := ofxgo.ParseResponse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnreadableInput, err)
	}

	result := &Result{}
	line := 0

	appendTxn := func(ofxTx ofxgo.Transaction, account string) {
		line++
		amount, _ := ofxTx.TrnAmt.Float64()

		description := strings.TrimSpace(string(ofxTx.Name))
		if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
			description = strings.TrimSpace(string(ofxTx.Payee.Name))
		}
		if description == "" {
			description = strings.TrimSpace(string(ofxTx.Memo))
		}

		result.Rows = append(result.Rows, Row{
			Fields: map[string]string{
				"date":        ofxTx.DtPosted.Time.Format("2006-01-02"),
				"description": description,
				"amount":      fmt.Sprintf("%.2f", amount),
				"account":     account,
				"type":        fmt.Sprintf("%v", ofxTx.TrnType),
			},
			Line: line,
		})
	}

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		account := string(stmt.BankAcctFrom.AcctID)
		for _, ofxTx := range stmt.BankTranList.Transactions {
			appendTxn(ofxTx, account)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		account := string(stmt.CCAcctFrom.AcctID)
		for _, ofxTx := range stmt.BankTranList.Transactions {
			appendTxn(ofxTx, account)
		}
	}

	if len(result.Rows) == 0 {
		return nil, fmt.Errorf("%w: no transactions in OFX file", common.ErrUnreadableInput)
	}

	return result, nil
}
