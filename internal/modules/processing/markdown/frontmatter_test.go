package markdown

import (
	"testing"

	"github.com/adminblog/core/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantMeta map[string]any
		wantBody string
	}{
		{
			name:     "written by the post service",
			raw:      "---\ndate: \"2024-05-01\"\ntitle: Hello World\n---\n\nBody text\n",
			wantMeta: map[string]any{"title": "Hello World", "date": "2024-05-01"},
			wantBody: "Body text\n",
		},
		{
			name:     "unquoted date stays a string",
			raw:      "---\ntitle: Hi\ndate: 2024-05-01\n---\nno blank line",
			wantMeta: map[string]any{"title": "Hi", "date": "2024-05-01"},
			wantBody: "no blank line",
		},
		{
			name:     "no front-matter",
			raw:      "# Just markdown\n\n---\n",
			wantMeta: map[string]any{},
			wantBody: "# Just markdown\n\n---\n",
		},
		{
			name:     "empty block",
			raw:      "---\n---\n\nbody",
			wantMeta: map[string]any{},
			wantBody: "body",
		},
		{
			name:     "crlf line endings",
			raw:      "---\r\ntitle: Win\r\n---\r\n\r\nbody\r\n",
			wantMeta: map[string]any{"title": "Win"},
			wantBody: "body\r\n",
		},
		{
			name:     "closing delimiter at end of file",
			raw:      "---\ntitle: Only\n---",
			wantMeta: map[string]any{"title": "Only"},
			wantBody: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMeta, doc.Meta)
			assert.Equal(t, tt.wantBody, doc.Body)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"unterminated", "---\ntitle: x\nbody"},
		{"unterminated trailing newline", "---\ntitle: x\n"},
		{"invalid yaml", "---\ntitle: [unclosed\n---\nbody"},
		{"not a mapping", "---\n- a\n- b\n---\nbody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			assert.ErrorIs(t, err, apperr.ErrFormat)
		})
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	metas := []map[string]any{
		{},
		{"title": "Hello World", "date": "2024-05-01"},
		{"title": "colons: and \"quotes\"", "date": "2024-05-01"},
		{"title": "---", "draft": true, "weight": 3, "ratio": 0.5},
		{"title": "multi\nline\n---\nvalue", "empty": ""},
		{"nothing": nil},
		{"updated": "2024-05-02T08:30:00Z", "tags": []any{"2024-01-01", "go"}},
	}
	bodies := []string{
		"",
		"Body text",
		"\nleading newline",
		"\n\ntwo leading newlines\n",
		"---\nlooks like front-matter\n---\n",
		"trailing spaces   \r\n",
	}
	for _, meta := range metas {
		for _, body := range bodies {
			raw, err := Serialize(meta, body)
			require.NoError(t, err)

			doc, err := Parse(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, meta, doc.Meta, raw)
			assert.Equal(t, body, doc.Body, raw)
		}
	}
}

func TestSerialize_Layout(t *testing.T) {
	raw, err := Serialize(map[string]any{"title": "Hello World", "date": "2024-05-01"}, "Body text\n")
	require.NoError(t, err)
	assert.Equal(t, "---\ndate: 2024-05-01\ntitle: Hello World\n---\n\nBody text\n", raw)
}

func TestParse_DatesKeepTheirText(t *testing.T) {
	raw := "---\ndate: 2024-05-01\nupdated: 2024-05-02 10:00:00\n---\n\nbody\n"
	doc, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", doc.Meta["date"])
	assert.Equal(t, "2024-05-02 10:00:00", doc.Meta["updated"])

	again, err := Serialize(doc.Meta, doc.Body)
	require.NoError(t, err)
	assert.Equal(t, raw, again)

	doc, err = Parse("---\nlog: [2023-12-31, 2024-01-01T08:00:00Z]\n---\n")
	require.NoError(t, err)
	assert.Equal(t, []any{"2023-12-31", "2024-01-01T08:00:00Z"}, doc.Meta["log"])
}
