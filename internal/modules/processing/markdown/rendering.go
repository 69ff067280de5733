package markdown

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// markdownEngine renders without WithUnsafe, so raw HTML blocks in a body
// come out as comments. Nothing else is sanitized here.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Linkify,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
		htmlrenderer.WithXHTML(),
	),
)

var (
	mermaidCodeRegex     = regexp.MustCompile(`(?is)<pre><code class="language-mermaid">([\s\S]*?)</code></pre>`)
	imageTagRegex        = regexp.MustCompile(`(?is)<img\s+[^>]*>`)
	imageAttrRegex       = regexp.MustCompile(`([a-zA-Z:_-]+)\s*=\s*"([^"]*)"`)
	figureParagraphRegex = regexp.MustCompile(`(?is)<p>\s*(<figure>[\s\S]*?</figure>)\s*</p>`)
)

// Render converts a markdown body to an HTML fragment. It is pure: the same
// input always yields the same output and nothing outside memory is touched.
func Render(body string) string {
	text := strings.TrimSpace(body)
	if text == "" {
		return ""
	}

	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return "<pre>" + template.HTMLEscapeString(text) + "</pre>"
	}

	html := out.String()
	html = rewriteCodeBlocks(html)
	html = rewriteImages(html)
	return html
}

func rewriteCodeBlocks(html string) string {
	return mermaidCodeRegex.ReplaceAllString(html, `<pre class="mermaid">$1</pre>`)
}

// rewriteImages turns images whose alt text starts with "!" into captioned figures.
func rewriteImages(html string) string {
	processed := imageTagRegex.ReplaceAllStringFunc(html, func(tag string) string {
		attrs := parseImageAttrs(tag)
		src := strings.TrimSpace(attrs["src"])
		if src == "" {
			return tag
		}

		alt := strings.TrimSpace(attrs["alt"])
		caption, isFigure := strings.CutPrefix(alt, "!")
		if !isFigure {
			return tag
		}
		caption = strings.TrimSpace(caption)
		if caption == "" {
			caption = strings.TrimSpace(attrs["title"])
		}
		return `<figure><img src="` + template.HTMLEscapeString(src) + `" alt="` + template.HTMLEscapeString(caption) +
			`" /><figcaption>` + template.HTMLEscapeString(caption) + `</figcaption></figure>`
	})
	return figureParagraphRegex.ReplaceAllString(processed, "$1")
}

func parseImageAttrs(tag string) map[string]string {
	attrs := make(map[string]string)
	for _, item := range imageAttrRegex.FindAllStringSubmatch(tag, -1) {
		if len(item) < 3 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(item[1]))
		if key == "" {
			continue
		}
		attrs[key] = item[2]
	}
	return attrs
}
