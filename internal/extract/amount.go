package extract

import "strconv"

// amount returns the first monetary value on the line, or false when the
// line has none. Only the numeric capture group is used; any sign or
// currency glyph in front of it is discarded.
func (e *Engine) amount(line string) (float64, bool) {
	m := e.amountRE.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
