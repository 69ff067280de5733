package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DateLayout is the on-disk format of a post date.
	DateLayout = "2006-01-02"

	descriptionLength = 160
	noExcerpt         = "No excerpt available. Click to read more."
)

var (
	slugSeparatorRegex = regexp.MustCompile(`[^a-z0-9]+`)
	validSlugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	paragraphRegex     = regexp.MustCompile(`\n\s*\n`)
)

// Slugify derives the URL-safe identifier of a post from its title.
func Slugify(title string) string {
	s := slugSeparatorRegex.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// ValidSlug reports whether slug is something Slugify could have produced.
func ValidSlug(slug string) bool {
	return validSlugRegex.MatchString(slug)
}

// Excerpt returns the first paragraph of body.
func Excerpt(body string) string {
	for _, p := range paragraphRegex.Split(body, -1) {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return noExcerpt
}

// Description returns at most the first 160 characters of body, for meta tags.
func Description(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(text) <= descriptionLength {
		return text
	}
	return string([]rune(text)[:descriptionLength])
}

// AsString converts a front-matter value to its display form.
func AsString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case time.Time:
		return value.Format(DateLayout)
	case fmt.Stringer:
		return value.String()
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// ParseDate accepts the layouts found in hand-written front-matter.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{
		DateLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
