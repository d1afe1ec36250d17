package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// containerTags are the elements whose class attribute is checked for "job".
var containerTags = map[string]bool{
	"div":     true,
	"section": true,
	"article": true,
}

// skippedTags never contribute visible text.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// ExtractJobText picks the text believed to be the job description out of an HTML page.
//
// Every div/section/article whose class contains "job" (any case) is taken in document
// order, nested matches included. When there are none, all <p> elements are used instead.
// Unparseable HTML yields "".
func ExtractJobText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	sections := doc.Find("*").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if !containerTags[goquery.NodeName(s)] {
			return false
		}
		class, ok := s.Attr("class")
		return ok && strings.Contains(strings.ToLower(class), "job")
	})
	if sections.Length() == 0 {
		sections = doc.Find("p")
	}

	parts := make([]string, 0, sections.Length())
	sections.Each(func(_ int, s *goquery.Selection) {
		if t := strippedText(s); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}

// strippedText joins the trimmed, non-empty text nodes under s with single spaces.
func strippedText(s *goquery.Selection) string {
	var pieces []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			name := goquery.NodeName(c)
			switch {
			case name == "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					pieces = append(pieces, t)
				}
			case skippedTags[name]:
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return strings.Join(pieces, " ")
}
