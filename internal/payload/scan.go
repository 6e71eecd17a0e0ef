package payload

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// unescape undoes the escapes JSON-style encoders put into base64 strings.
var unescape = strings.NewReplacer(`\/`, "/", `\n`, "", `\r`, "")

// Fallback patterns, tried after the named assignment.
var (
	dataURIPattern = regexp.MustCompile(`["']data:application/pdf;base64,([^"']+)["']`)
	pdfLiteral     = regexp.MustCompile(`["'](JVBERi[^"']+)["']`)
)

// ScanHTML looks through the <script> elements of a document for a quoted
// base64 payload. It first looks for an assignment to key (var, let, const,
// or bare), then a PDF data URI, then any literal starting with the base64
// form of "%PDF". It is used for payloads that are not reachable as a
// global, such as let or const declarations.
func ScanHTML(html, key string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	var scripts []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		if text := s.Text(); strings.TrimSpace(text) != "" {
			scripts = append(scripts, text)
		}
	})
	if len(scripts) == 0 {
		return "", false
	}

	patterns := []*regexp.Regexp{dataURIPattern, pdfLiteral}
	if key != "" {
		assign := regexp.MustCompile(`\b` + regexp.QuoteMeta(key) + `\s*=\s*["']([^"']+)["']`)
		patterns = append([]*regexp.Regexp{assign}, patterns...)
	}

	for _, re := range patterns {
		for _, text := range scripts {
			if m := re.FindStringSubmatch(text); m != nil {
				value := strings.TrimSpace(unescape.Replace(StripDataURI(m[1])))
				if value != "" {
					return value, true
				}
			}
		}
	}
	return "", false
}
