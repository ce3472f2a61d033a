package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentTextPlain(t *testing.T) {
	raw := "CFAAM Ref: CFAAM-2025-0007\nImporter: Acme Imports Ltd\n"
	assert.Equal(t, raw, documentText("approval.txt", []byte(raw)))
}

func TestDocumentTextHTML(t *testing.T) {
	html := `<!DOCTYPE html>
<html>
<head><style>body { color: red; }</style></head>
<body>
  <script>trackOpen();</script>
  <h1>Approval Document</h1>
  <p>CFAAM Ref: CFAAM-2025-0007</p>
  <p>Importer: Acme Imports Ltd</p>
</body>
</html>`

	text := documentText("approval.html", []byte(html))

	assert.Contains(t, text, "CFAAM-2025-0007")
	assert.Contains(t, text, "Acme Imports Ltd")
	assert.NotContains(t, text, "trackOpen")
	assert.NotContains(t, text, "color: red")
}

func TestDocumentTextSniffsHTMLWithoutExtension(t *testing.T) {
	html := `<html><body><p>CFAAM Ref: CFAAM-2025-0009</p></body></html>`

	text := documentText("forwarded", []byte(html))

	assert.Contains(t, text, "CFAAM-2025-0009")
	assert.NotContains(t, text, "<p>")
}

func TestCollapseWhitespace(t *testing.T) {
	in := "  first line  \n\n\n   second line\n\t\n"
	assert.Equal(t, "first line\nsecond line", collapseWhitespace(in))
}
