package parser

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern      = regexp.MustCompile(`<[^>]+>`)
	paragraphSignSpace  = regexp.MustCompile(`§\s+(\d)`)
	absatzSpacePattern  = regexp.MustCompile(`Abs\.\s+(\d)`)
	nrSpacePattern      = regexp.MustCompile(`Nr\.\s+(\d)`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]+`)
	repeatedNewlines    = regexp.MustCompile(`\n{3,}`)
	crlfPattern         = regexp.MustCompile(`\r\n?`)
)

var unicodeReplacements = strings.NewReplacer(
	"“", `"`, "”", `"`, "‘", "'", "’", "'",
	"–", "-", "—", "-",
)

// Normalize prepares raw document text for section detection, per
// spec.md §4.5, grounded on the Python original's normalizer.py: strip
// HTML, normalize unicode quotes/dashes, collapse whitespace, cap
// consecutive newlines at two, and tighten legal-reference spacing
// (§ / Abs. / Nr.).
func Normalize(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = crlfPattern.ReplaceAllString(text, "\n")
	text = unicodeReplacements.Replace(text)
	text = strings.ReplaceAll(text, "§§", "§ ")
	text = paragraphSignSpace.ReplaceAllString(text, "§$1")
	text = absatzSpacePattern.ReplaceAllString(text, "Abs. $1")
	text = nrSpacePattern.ReplaceAllString(text, "Nr. $1")
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = repeatedNewlines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
