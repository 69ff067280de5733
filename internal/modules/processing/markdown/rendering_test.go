package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	assert.Equal(t, "", Render("  \n"))
	assert.Equal(t, "<p>Body text</p>\n", Render("Body text"))

	html := Render("# Title\n\n- [x] done\n\n| a | b |\n|---|---|\n| 1 | 2 |")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, `type="checkbox"`)
	assert.Contains(t, html, "<table>")
}

func TestRender_Deterministic(t *testing.T) {
	body := "Some *emphasis* and a https://example.com link\nwith a hard wrap"
	first := Render(body)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Render(body))
	}
	assert.Contains(t, first, "<br />")
	assert.Contains(t, first, `<a href="https://example.com">`)
}

func TestRender_RawHTMLOmitted(t *testing.T) {
	html := Render("<script>alert(1)</script>\n\ntext")
	assert.False(t, strings.Contains(html, "<script>"))
}

func TestRender_MermaidAndFigures(t *testing.T) {
	html := Render("```mermaid\ngraph TD;\n```\n\n![!A caption](/img.png)")
	assert.Contains(t, html, `<pre class="mermaid">`)
	assert.Contains(t, html, `<figure><img src="/img.png" alt="A caption" /><figcaption>A caption</figcaption></figure>`)
	assert.NotContains(t, html, "<p><figure>")
}
