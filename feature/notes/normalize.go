package notes

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

var soundTagPattern = regexp.MustCompile(`\[sound:[^\]]*\]`)

// Normalize strips sound tags and markup from a field value, collapses
// whitespace and returns the NFC form. Text inside script and style elements
// is dropped.
func Normalize(raw string) string {
	raw = soundTagPattern.ReplaceAllString(raw, " ")
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var parts []string
	skipDepth := 0
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return norm.NFC.String(strings.Join(strings.Fields(strings.Join(parts, " ")), " "))
		case html.StartTagToken:
			if isRawText(z.Token().DataAtom) {
				skipDepth++
			}
		case html.EndTagToken:
			if isRawText(z.Token().DataAtom) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				parts = append(parts, string(z.Text()))
			}
		}
	}
}

func isRawText(a atom.Atom) bool {
	return a == atom.Script || a == atom.Style
}
