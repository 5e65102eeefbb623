package extract

// segment splits lines into transaction blocks, each anchored by a line
// matching a date/time pattern. A screenshot of a transaction list yields
// one block per entry. Lines before the first anchor have no block to
// attach to and are dropped. An anchor-only block is still returned here;
// the block extractor rejects it.
func (e *Engine) segment(lines []string) [][]string {
	blocks := make([][]string, 0)
	var current []string

	for _, line := range lines {
		if e.anchorRE.MatchString(line) {
			if len(current) > 0 {
				blocks = append(blocks, current)
			}
			current = []string{line}
			continue
		}
		if len(current) > 0 {
			current = append(current, line)
		}
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}
