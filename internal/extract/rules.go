package extract

import (
	"encoding/json"
	"fmt"
	"os"
)

// Rules is the tunable vocabulary and pattern set driving extraction.
// Payment-app wording varies by provider, so these are data, not code:
// callers may load overrides from JSON instead of editing the defaults.
type Rules struct {
	// NoiseTerms marks a line as UI boilerplate when any term appears in it.
	NoiseTerms []string `json:"noise_terms"`

	// DistractorTerms disqualifies an amount found on the same line
	// (original price, discount, strikethrough vocabulary).
	DistractorTerms []string `json:"distractor_terms"`

	// DescriptiveTerms are tokens that normally count as noise but describe
	// real content when the line is long enough (see descriptiveMinRunes).
	DescriptiveTerms []string `json:"descriptive_terms"`

	// AnchorPatterns are regex alternatives; a line containing any of them
	// starts a new transaction block.
	AnchorPatterns []string `json:"anchor_patterns"`

	// AmountPattern captures the numeric value in its first group. The
	// two-fraction-digit form is a hard assumption of the whole rule set:
	// payment apps render paid amounts with exactly two decimals.
	AmountPattern string `json:"amount_pattern"`

	// MinLineLength drops OCR fragments shorter than this many runes.
	MinLineLength int `json:"min_line_length"`
}

// descriptiveMinRunes is the length above which a line containing a
// descriptive term is treated as content rather than boilerplate.
const descriptiveMinRunes = 6

// DefaultRules returns the built-in rule set, tuned against common
// Chinese and English payment-app screenshots.
func DefaultRules() Rules {
	return Rules{
		NoiseTerms: []string{
			"支付", "银行", "详情", "成功", "账单", "退款", "入账",
			"报销", "开票", "查看", "更多", "服务", "余额",
			"当前状态", "交易", "商品", "商户", "全称",
			"中国移动", "中国电信", "中国联通",
			"payment", "bank", "details", "success", "bill", "refund",
			"posted", "reimbursement", "invoice", "view", "more",
			"service", "balance", "status", "transaction", "product",
			"merchant", "full name",
		},
		DistractorTerms: []string{
			"原价", "优惠", "已省", "折扣", "划线", "立减", "抵扣",
			"original price", "discount", "savings", "you save",
			"markdown", "strikethrough", "deduction",
		},
		DescriptiveTerms: []string{"交易", "transaction"},
		AnchorPatterns: []string{
			`\d{1,2}月\d{1,2}日`,
			`\d{4}-\d{2}-\d{2}`,
			`\d{1,2}:\d{2}`,
			`昨天`, `今天`,
			`yesterday`, `today`,
		},
		AmountPattern: `(?:￥|¥|\$|[+\-])?\s*(\d+\.\d{2})`,
		MinLineLength: 2,
	}
}

// LoadRules reads a JSON rule file. Fields left empty in the file fall
// back to the defaults, so a file may override only the vocabulary.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}

	rules := DefaultRules()
	if err := json.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("decoding rules file: %w", err)
	}
	return rules, nil
}
