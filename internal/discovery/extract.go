package discovery

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

// extractText returns the trimmed text of the first match.
func extractText(find string, doc *goquery.Selection) string {
	return strings.TrimSpace(doc.Find(find).First().Text())
}

// extractTexts returns the non-empty trimmed texts of every match.
func extractTexts(find string, doc *goquery.Selection) []string {
	var out []string
	doc.Find(find).Each(func(_ int, s *goquery.Selection) {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			out = append(out, txt)
		}
	})
	return out
}

// firstAttr returns the first non-empty attribute among attrs.
func firstAttr(s *goquery.Selection, attrs ...string) string {
	for _, a := range attrs {
		if v, ok := s.Attr(a); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// parseChapterNumber finds the chapter key in a link text.
func parseChapterNumber(text string) (float64, bool) {
	m := chapterNumber.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDate parses absolute dates in any common layout. Relative dates
// ("3 days ago") yield the zero time.
func parseDate(text string) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}
	}
	return t
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

var imageHints = []string{"image", "img", "photo", "picture", "cdn", "data"}

// isImageURL reports whether u looks like a page image: an image file
// extension, or an image host / path hint for extensionless URLs. Inline
// data: URLs are lazy-load placeholders and are rejected.
func isImageURL(u string) bool {
	if u == "" {
		return false
	}
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "javascript:") {
		return false
	}

	p := lower
	if parsed, err := url.Parse(lower); err == nil {
		p = parsed.Path
	}
	if imageExtensions[path.Ext(p)] {
		return true
	}

	for _, hint := range imageHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
