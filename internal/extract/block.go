package extract

// extractBlock resolves the merchant and paid amount for one transaction
// block. The first line is the date anchor; a block needs at least one
// content line after it to be usable.
func (e *Engine) extractBlock(lines []string) (Bill, bool) {
	if len(lines) < 2 {
		return Bill{}, false
	}

	dateText := lines[0]

	// Merchant: first content line, with a single fallback step when that
	// line is boilerplate. Past one step we give up on a name rather than
	// walk into amount territory.
	merchantIndex := 1
	merchant := lines[merchantIndex]
	if e.isNoise(merchant) && len(lines) > 2 {
		merchantIndex = 2
		merchant = lines[merchantIndex]
	}
	if e.isNoise(merchant) {
		merchant = UnknownMerchant
	}

	// Amount: scan below the merchant line and take the first clean match.
	// Payment apps place the charged amount next to the merchant, while
	// struck-through original prices show up further down, so the closest
	// valid amount wins. Lines carrying discount vocabulary are skipped
	// without ending the scan.
	var amount float64
	for i := merchantIndex + 1; i < len(lines); i++ {
		v, ok := e.amount(lines[i])
		if !ok || v <= 0 {
			continue
		}
		if e.isDistractor(lines[i]) {
			continue
		}
		amount = v
		break
	}

	if amount <= 0 {
		return Bill{}, false
	}
	return Bill{
		Merchant: merchant,
		Amount:   amount,
		DateText: dateText,
		Type:     TypeAutoExtracted,
	}, true
}
