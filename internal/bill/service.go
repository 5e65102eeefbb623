package bill

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/wenqian/autobill/internal/extract"
	"github.com/wenqian/autobill/internal/fallback"
	"github.com/wenqian/autobill/internal/imaging"
	"github.com/wenqian/autobill/internal/ocr"
)

// RuleEngine is the deterministic extraction core the service drives.
type RuleEngine interface {
	Extract(text string) []extract.Bill
}

// IDGenerator generates unique IDs for bills
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.New().String()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the capture pipeline: image normalization, OCR, rule-based
// extraction, AI fallback, persistence.
type Service struct {
	db          DB
	recognizer  ocr.Recognizer
	engine      RuleEngine
	guesser     fallback.Guesser // nil disables the AI fallback
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
func NewService(db DB, recognizer ocr.Recognizer, engine RuleEngine, guesser fallback.Guesser) *Service {
	return &Service{
		db:          db,
		recognizer:  recognizer,
		engine:      engine,
		guesser:     guesser,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing.
func NewServiceWithDeps(db DB, recognizer ocr.Recognizer, engine RuleEngine, guesser fallback.Guesser, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		recognizer:  recognizer,
		engine:      engine,
		guesser:     guesser,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// toCents converts a two-decimal amount to integer cents. Rounding only
// absorbs float representation error; the source text carries exactly two
// fraction digits.
func toCents(amount float64) int {
	return int(math.Round(amount * 100))
}

// CaptureImage runs the full pipeline for one captured image. Zero bills
// is a valid outcome, not an error: screenshots that are not bills simply
// produce nothing.
func (s *Service) CaptureImage(ctx context.Context, data []byte, contentType string) ([]*Bill, error) {
	pngData, err := imaging.ToPNG(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("normalizing image: %w", err)
	}

	text, err := s.recognizer.Recognize(ctx, pngData)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	return s.CaptureText(ctx, text)
}

// CaptureText extracts and persists bills from already-recognized text.
// The rule engine runs first; the AI fallback is consulted only when the
// rules produce nothing.
func (s *Service) CaptureText(ctx context.Context, text string) ([]*Bill, error) {
	now := s.timeSource.Now()

	drafts := s.engine.Extract(text)
	if len(drafts) > 0 {
		bills := make([]*Bill, 0, len(drafts))
		for _, d := range drafts {
			b := &Bill{
				ID:        s.idGenerator.Generate(),
				Merchant:  d.Merchant,
				Amount:    toCents(d.Amount),
				DateText:  d.DateText,
				Type:      d.Type,
				Category:  CategoryUnsorted,
				Source:    SourceRules,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.db.SaveBill(b); err != nil {
				return nil, fmt.Errorf("saving bill: %w", err)
			}
			bills = append(bills, b)
		}
		slog.Info("Bills captured by rule engine", "count", len(bills))
		return bills, nil
	}

	if s.guesser == nil {
		slog.Info("Rule engine found no bills and no fallback is configured")
		return []*Bill{}, nil
	}

	guess, err := s.guesser.GuessBill(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ai fallback: %w", err)
	}
	if guess == nil {
		slog.Info("AI fallback judged the text not to be a bill")
		return []*Bill{}, nil
	}

	b := &Bill{
		ID:        s.idGenerator.Generate(),
		Merchant:  guess.Merchant,
		Amount:    toCents(guess.Amount),
		BilledAt:  guess.Time,
		Type:      guess.Type,
		Category:  CategoryUnsorted,
		Source:    SourceAI,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.SaveBill(b); err != nil {
		return nil, fmt.Errorf("saving bill: %w", err)
	}
	slog.Info("Bill captured by AI fallback", "merchant", b.Merchant)
	return []*Bill{b}, nil
}

// GetBill retrieves a bill by ID
func (s *Service) GetBill(id string) (*Bill, error) {
	bill, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return bill, nil
}

// ListBills returns all bills, newest first
func (s *Service) ListBills() ([]*Bill, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	return bills, nil
}

// DeleteBill removes a bill
func (s *Service) DeleteBill(id string) error {
	if err := s.db.DeleteBill(id); err != nil {
		return fmt.Errorf("deleting bill: %w", err)
	}
	return nil
}

// DaySummary is one day's aggregate for the spending trend view.
type DaySummary struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Total int    `json:"total"` // cents
	Count int    `json:"count"`
}

// Summarize aggregates captured bills per calendar day over the last
// `days` days, newest day first. Days without bills are omitted.
func (s *Service) Summarize(days int) ([]DaySummary, error) {
	if days <= 0 {
		days = 30
	}

	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}

	cutoff := s.timeSource.Now().AddDate(0, 0, -days)
	byDay := make(map[string]*DaySummary)
	order := make([]string, 0)

	for _, b := range bills {
		if b.CreatedAt.Before(cutoff) {
			continue
		}
		day := b.CreatedAt.Format("2006-01-02")
		sum, ok := byDay[day]
		if !ok {
			sum = &DaySummary{Date: day}
			byDay[day] = sum
			order = append(order, day)
		}
		sum.Total += b.Amount
		sum.Count++
	}

	// Bills arrive newest first, so the day order is already descending.
	out := make([]DaySummary, 0, len(order))
	for _, day := range order {
		out = append(out, *byDay[day])
	}
	return out, nil
}
