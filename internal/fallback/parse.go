package fallback

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/wenqian/autobill/internal/extract"
)

// guessSchema is the strict shape we ask the model for. Responses failing
// validation are not rejected outright; they degrade to the lenient
// default-substituting path below.
const guessSchema = `{
	"type": "object",
	"properties": {
		"merchant": {"type": "string", "minLength": 1},
		"amount": {"type": "number", "exclusiveMinimum": 0},
		"time": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2} \\d{2}:\\d{2}:\\d{2}$"},
		"type": {"type": "string"}
	},
	"required": ["merchant", "amount"]
}`

var compiledGuessSchema = jsonschema.MustCompileString("guess.schema.json", guessSchema)

// ParseGuess turns a raw model response into a Guess. It strips markdown
// code fences, tolerates missing fields by substituting fixed defaults,
// and returns nil for anything that cannot yield a positive amount:
// empty responses, an explicit null, undecodable JSON, or a zero amount.
// It never returns an error; a bad response is simply not a bill.
func ParseGuess(raw string, now time.Time) *Guess {
	text := stripFences(raw)
	if text == "" || strings.EqualFold(text, "null") {
		return nil
	}

	// Bracket to the outermost JSON object; models occasionally pad the
	// payload with prose despite the instructions.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil
	}
	text = text[start : end+1]

	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil
	}

	if err := compiledGuessSchema.Validate(payload); err != nil {
		slog.Warn("AI response failed schema validation, applying defaults", "error", err)
	}

	guess := &Guess{
		Merchant: stringField(payload, "merchant", extract.UnknownMerchant),
		Amount:   amountField(payload),
		Type:     stringField(payload, "type", TypeExpense),
		Time:     timeField(payload, now),
	}
	if guess.Amount <= 0 {
		return nil
	}
	return guess
}

// stripFences removes markdown code-block wrapping from a model response.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func stringField(payload map[string]any, key, fallback string) string {
	if v, ok := payload[key].(string); ok {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return fallback
}

// amountField accepts a JSON number or a numeric string; anything else
// counts as zero, which the caller treats as "no bill produced".
func amountField(payload map[string]any) float64 {
	switch v := payload["amount"].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func timeField(payload map[string]any, now time.Time) time.Time {
	v, ok := payload["time"].(string)
	if !ok {
		return now
	}
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(v), now.Location())
	if err != nil {
		return now
	}
	return t
}
