package service

import (
	"html"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/microcosm-cc/bluemonday"

	"github.com/blogcms/blog-api/internal/web/blog/model"
)

const (
	// excerptLength is the rune length of a derived excerpt
	excerptLength = 200
	// wordsPerMinute drives the reading time estimate
	wordsPerMinute = 200
)

var stripPolicy = bluemonday.StrictPolicy()

// ParseMarkdown2HTML parse markdown to string
func ParseMarkdown2HTML(md []byte) string {
	opts := mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank}
	return string(markdown.ToHTML(md, nil, mdhtml.NewRenderer(opts)))
}

// PlainText renders content to whitespace-collapsed text without markup
func PlainText(content string, ct model.ContentType) string {
	rendered := content
	if ct == model.ContentTypeMarkdown {
		rendered = ParseMarkdown2HTML([]byte(content))
	}

	// keep words in adjacent block elements apart
	rendered = strings.ReplaceAll(rendered, "<", " <")
	text := html.UnescapeString(stripPolicy.Sanitize(rendered))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns the leading excerptLength runes of text, marking truncation with "..."
func Excerpt(text string) string {
	cut := Truncate(text, excerptLength)
	if cut == text {
		return text
	}
	return strings.TrimRight(cut, " ") + "..."
}

// ReadingTime estimates minutes to read text, at least 1
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Truncate truncate string to n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	var count int
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}

	return s
}
