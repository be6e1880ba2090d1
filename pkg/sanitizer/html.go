package sanitizer

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// richTextTags 본문에 허용되는 태그
var richTextTags = []string{
	"p", "br", "strong", "b", "em", "i", "u",
	"code", "pre", "blockquote", "ul", "ol", "li",
	"h1", "h2", "h3", "h4", "h5", "h6", "a",
}

// Sanitizer HTML 살균화 도구. Disallowed tags and attributes are stripped, never rejected.
type Sanitizer struct {
	rich  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewRichTextSanitizer 리치 텍스트용 Sanitizer 생성
func NewRichTextSanitizer() *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements(richTextTags...)
	rich.AllowAttrs("href", "title").OnElements("a")
	rich.AllowStandardURLs()
	rich.RequireNoFollowOnLinks(true)

	return &Sanitizer{
		rich:  rich,
		plain: bluemonday.StrictPolicy(),
	}
}

// Sanitize returns markup that only contains the allow-listed tags
func (s *Sanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return s.rich.Sanitize(raw)
}

// PlainText strips all markup and decodes entities, for length checks
func (s *Sanitizer) PlainText(markup string) string {
	if markup == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(markup)))
}
