package extraction

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// documentText returns the text content of a document. HTML exports (a
// common shape for approval documents forwarded from mail systems) are
// reduced to their visible text; everything else is passed through as-is.
func documentText(filename string, data []byte) string {
	if !looksLikeHTML(filename, data) {
		return string(data)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		// Fall back to the raw bytes; the model copes with markup.
		return string(data)
	}

	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
	})

	text := b.String()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return collapseWhitespace(text)
}

func looksLikeHTML(filename string, data []byte) bool {
	name := strings.ToLower(filename)
	if strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm") {
		return true
	}

	head := strings.ToLower(string(data[:min(len(data), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
