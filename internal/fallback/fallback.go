// Package fallback is the AI escalation path, invoked only when the rule
// engine extracts nothing from a screenshot's OCR text. A provider sends
// the raw text with a fixed instruction and returns one best-effort guess,
// or nil when the model decides the text is not a bill.
package fallback

import (
	"context"
	"time"
)

// TypeExpense is the default classification for AI-guessed bills.
const TypeExpense = "expense"

// TimeLayout is the timestamp format the model is instructed to emit.
const TimeLayout = "2006-01-02 15:04:05"

// requestTimeout bounds the single model call. There is no retry here;
// retry policy belongs to the enclosing work queue.
const requestTimeout = 30 * time.Second

// Guess is the model's structured reading of a screenshot.
type Guess struct {
	Merchant string
	Amount   float64
	Time     time.Time
	Type     string
}

// Guesser asks a language model to read OCR text as a bill.
// A (nil, nil) return means the model judged the text not to be a bill.
type Guesser interface {
	GuessBill(ctx context.Context, ocrText string) (*Guess, error)
	Close() error
}

// billGuessPrompt is the shared instruction for all providers.
const billGuessPrompt = `You are a bill parsing assistant. The user gives you raw OCR text from a screenshot of a payment or bill confirmation page. Extract:

1. merchant: the store or brand that was paid. If no explicit name appears, infer a short label from the content (e.g. food items imply a restaurant).
2. amount: the amount actually paid, as a number with two decimals.
3. time: the transaction time in "yyyy-MM-dd HH:mm:ss" format. If the text shows only a time of day, assume today's date.
4. type: the bill classification, default "expense".

Strict requirements:
- Return ONLY a standard JSON object, nothing else.
- Do not wrap the JSON in markdown code fences.
- If the text cannot be a bill at all, return null.

Example response:
{
  "merchant": "Lawson",
  "amount": 25.50,
  "time": "2023-10-25 14:30:00",
  "type": "expense"
}`
