package extract

import (
	"strings"
	"unicode/utf8"
)

// isNoise reports whether a line is UI chrome rather than merchant or
// amount content: either a bare run of digits and punctuation, or a line
// containing boilerplate vocabulary. A line carrying a descriptive term
// (e.g. "交易") that is long enough to be a real description is exempt.
func (e *Engine) isNoise(line string) bool {
	for _, term := range e.rules.DescriptiveTerms {
		if strings.Contains(line, term) && utf8.RuneCountInString(line) > descriptiveMinRunes {
			return false
		}
	}
	if e.bareLineRE.MatchString(line) {
		return true
	}
	for _, term := range e.rules.NoiseTerms {
		if strings.Contains(line, term) {
			return true
		}
	}
	return false
}

// isDistractor reports whether amounts on this line represent discounted
// or original prices rather than the amount actually paid. It disqualifies
// only the line's amount match, not the line itself.
func (e *Engine) isDistractor(line string) bool {
	for _, term := range e.rules.DistractorTerms {
		if strings.Contains(line, term) {
			return true
		}
	}
	return false
}
