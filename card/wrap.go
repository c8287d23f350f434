package card

import "strings"

// Wrap greedily packs the words of text into lines narrower than maxWidth,
// measuring each candidate line with the font chosen for it. A word wider
// than maxWidth on its own gets a line to itself.
func Wrap(text string, fonts FontSet, maxWidth int) []string {
	var lines []string
	current := ""

	for _, word := range strings.Fields(text) {
		if current == "" {
			current = word
			continue
		}
		candidate := current + " " + word
		if fonts.Width(candidate) < maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}

	return append(lines, current)
}
