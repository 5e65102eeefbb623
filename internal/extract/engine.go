// Package extract converts raw OCR text from payment-app screenshots into
// structured bill records using a deterministic rule set. The engine is
// pure: no I/O, no shared state, safe for concurrent use.
package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// TypeAutoExtracted labels bills produced by the rule engine.
const TypeAutoExtracted = "auto-extracted"

// UnknownMerchant is the sentinel used when no merchant line survives
// noise filtering.
const UnknownMerchant = "Unknown Merchant"

// Bill is one transaction extracted from OCR text. Amount is always
// positive; DateText is the raw anchor line as it appeared on screen.
type Bill struct {
	Merchant string  `json:"merchant"`
	Amount   float64 `json:"amount"`
	DateText string  `json:"date_text"`
	Type     string  `json:"type"`
}

// Engine applies a compiled rule set to OCR text.
type Engine struct {
	rules      Rules
	amountRE   *regexp.Regexp
	anchorRE   *regexp.Regexp
	bareLineRE *regexp.Regexp
}

// bareLinePattern matches lines that are nothing but digits, punctuation
// and spaces: timestamp fragments, bare totals, OCR debris.
const bareLinePattern = `^[0-9.+\-: ]+$`

// New compiles the rule set. Pattern errors surface here so that
// extraction itself can never fail.
func New(rules Rules) (*Engine, error) {
	if rules.AmountPattern == "" {
		return nil, fmt.Errorf("amount pattern is required")
	}
	if len(rules.AnchorPatterns) == 0 {
		return nil, fmt.Errorf("at least one anchor pattern is required")
	}
	if rules.MinLineLength <= 0 {
		rules.MinLineLength = DefaultRules().MinLineLength
	}

	amountRE, err := regexp.Compile(rules.AmountPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling amount pattern: %w", err)
	}
	if amountRE.NumSubexp() < 1 {
		return nil, fmt.Errorf("amount pattern needs a capture group for the numeric value")
	}

	anchorRE, err := regexp.Compile(strings.Join(rules.AnchorPatterns, "|"))
	if err != nil {
		return nil, fmt.Errorf("compiling anchor patterns: %w", err)
	}

	return &Engine{
		rules:      rules,
		amountRE:   amountRE,
		anchorRE:   anchorRE,
		bareLineRE: regexp.MustCompile(bareLinePattern),
	}, nil
}

// Extract parses raw OCR text into zero or more bills, in the same
// top-to-bottom order as the screenshot. Unparseable input yields an
// empty slice, never an error.
func (e *Engine) Extract(text string) []Bill {
	bills := make([]Bill, 0)

	lines := splitLines(text, e.rules.MinLineLength)
	if len(lines) == 0 {
		return bills
	}

	for _, block := range e.segment(lines) {
		if bill, ok := e.extractBlock(block); ok {
			bills = append(bills, bill)
		}
	}
	return bills
}

// splitLines normalizes raw OCR output into trimmed, non-trivial lines.
func splitLines(text string, minLen int) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if len([]rune(l)) >= minLen {
			lines = append(lines, l)
		}
	}
	return lines
}
