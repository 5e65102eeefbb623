package bill

import "time"

// Provenance values for the Source field.
const (
	// SourceRules marks bills produced by the deterministic rule engine.
	SourceRules = "rules"
	// SourceAI marks bills produced by the AI fallback path.
	SourceAI = "ai"
)

// CategoryUnsorted is the default category for freshly captured bills.
const CategoryUnsorted = "uncategorized"

// Bill is a captured payment record. The two capture paths populate
// different date fields: the rule engine keeps the raw anchor text in
// DateText, while the AI path resolves a concrete timestamp in BilledAt.
type Bill struct {
	ID        string    `json:"id"`
	Merchant  string    `json:"merchant"`
	Amount    int       `json:"amount"` // Amount in cents
	DateText  string    `json:"date_text,omitempty"`
	BilledAt  time.Time `json:"billed_at,omitempty"`
	Type      string    `json:"type"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
