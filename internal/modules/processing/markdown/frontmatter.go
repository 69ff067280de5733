package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adminblog/core/internal/pkg/apperr"
	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Document is a markdown file split into its front-matter and body.
type Document struct {
	Meta map[string]any
	Body string
}

// Parse splits a leading "---" delimited YAML block from the body. Text with
// no opening delimiter is all body. An unterminated block, invalid YAML, or a
// block that is not a mapping fails with apperr.ErrFormat.
func Parse(raw string) (Document, error) {
	first, rest, ok := cutLine(raw)
	if !ok || first != delimiter {
		return Document{Meta: map[string]any{}, Body: raw}, nil
	}

	var block strings.Builder
	for {
		line, next, found := cutLine(rest)
		rest = next
		if strings.TrimRight(line, " \t") == delimiter {
			break
		}
		if !found {
			return Document{}, fmt.Errorf("%w: front-matter is not terminated", apperr.ErrFormat)
		}
		block.WriteString(line)
		block.WriteByte('\n')
	}

	meta, err := decodeMeta(block.String())
	if err != nil {
		return Document{}, err
	}

	// Serialize always leaves one blank line after the block.
	if strings.HasPrefix(rest, "\r\n") {
		rest = rest[2:]
	} else if strings.HasPrefix(rest, "\n") {
		rest = rest[1:]
	}
	return Document{Meta: meta, Body: rest}, nil
}

// Serialize is the inverse of Parse.
func Serialize(meta map[string]any, body string) (string, error) {
	var b strings.Builder
	b.WriteString(delimiter)
	b.WriteByte('\n')
	if len(meta) > 0 {
		var node yaml.Node
		if err := node.Encode(meta); err != nil {
			return "", fmt.Errorf("encode front-matter: %w", err)
		}
		plainDates(&node, false)

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return "", fmt.Errorf("encode front-matter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode front-matter: %w", err)
		}
		b.Write(buf.Bytes())
	}
	b.WriteString(delimiter)
	b.WriteString("\n\n")
	b.WriteString(body)
	return b.String(), nil
}

func decodeMeta(block string) (map[string]any, error) {
	meta := map[string]any{}
	if strings.TrimSpace(block) == "" {
		return meta, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal([]byte(block), &node); err != nil {
		return nil, fmt.Errorf("%w: front-matter: %v", apperr.ErrFormat, err)
	}
	if len(node.Content) == 0 {
		return meta, nil
	}
	if node.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: front-matter must be a mapping", apperr.ErrFormat)
	}
	datesAsStrings(&node)
	if err := node.Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: front-matter: %v", apperr.ErrFormat, err)
	}
	return meta, nil
}

// datesAsStrings retags timestamp scalars so `date: 2024-05-01` decodes to
// the string it was written as instead of a time.Time.
func datesAsStrings(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, child := range n.Content {
		datesAsStrings(child)
	}
}

// plainDates writes date-like string values unquoted, the way they are
// written by hand. Parse reads them back as strings.
func plainDates(n *yaml.Node, key bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		if !key && n.ShortTag() == "!!str" && looksLikeTimestamp(n.Value) {
			n.Tag = "!!timestamp"
			n.Style = 0
		}
	case yaml.MappingNode:
		for i, child := range n.Content {
			plainDates(child, i%2 == 0)
		}
	default:
		for _, child := range n.Content {
			plainDates(child, false)
		}
	}
}

// Layouts YAML resolves as timestamps.
var timestampLayouts = []string{
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2",
}

func looksLikeTimestamp(s string) bool {
	if len(s) < 5 || s[4] != '-' {
		return false
	}
	for _, r := range s[:4] {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// cutLine returns the first line of s without its terminator, the remainder,
// and whether a newline was found.
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}
