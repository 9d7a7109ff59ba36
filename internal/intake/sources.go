// Package intake loads pre-crawled source records from files and prepares
// them for extraction: HTML is reduced to visible text, domains get an
// ordinal reliability from a small authority map, and every record gets a
// stable id.
package intake

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claimsift/claimsift/internal/dates"
	"github.com/claimsift/claimsift/internal/model"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/net/html"
	"gopkg.in/yaml.v3"
)

// sourceRecord is the on-disk shape of one pre-crawled source.
type sourceRecord struct {
	URL         string `yaml:"url" json:"url"`
	Title       string `yaml:"title" json:"title"`
	Content     string `yaml:"content" json:"content"`
	Reliability int    `yaml:"reliability,omitempty" json:"reliability,omitempty"`
	PublishedAt string `yaml:"published_at,omitempty" json:"published_at,omitempty"`
}

// authorityDomains maps well-known domains to reliability on the 1-5
// scale. Unknown domains default to 1.
var authorityDomains = map[string]int{
	"wikipedia.org":       5,
	"sec.gov":             5,
	"wsj.com":             4,
	"nytimes.com":         4,
	"bloomberg.com":       4,
	"ft.com":              4,
	"reuters.com":         4,
	"crunchbase.com":      4,
	"techcrunch.com":      3,
	"forbes.com":          3,
	"businessinsider.com": 3,
}

// LoadFile reads source records from a YAML or JSON file. The format is
// chosen by extension; .json parses as JSON, everything else as YAML.
func LoadFile(path string) ([]model.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "reading sources file", goerr.V("path", path))
	}

	var records []sourceRecord
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &records)
	} else {
		err = yaml.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "parsing sources file", goerr.V("path", path))
	}

	sources := make([]model.Source, 0, len(records))
	for _, r := range records {
		s, err := fromRecord(r)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid source record", goerr.V("url", r.URL))
		}
		sources = append(sources, s)
	}
	return sources, nil
}

func fromRecord(r sourceRecord) (model.Source, error) {
	if strings.TrimSpace(r.URL) == "" {
		return model.Source{}, goerr.New("source record missing url")
	}
	if strings.TrimSpace(r.Content) == "" {
		return model.Source{}, goerr.New("source record missing content")
	}

	domain := DomainOf(r.URL)
	reliability := r.Reliability
	if reliability == 0 {
		reliability = RateDomain(domain)
	}

	s := model.Source{
		ID:          uuid.NewString(),
		URL:         r.URL,
		Domain:      domain,
		Title:       strings.TrimSpace(r.Title),
		Content:     normalizeContent(r.Content),
		Reliability: model.ClampReliability(reliability),
	}
	if r.PublishedAt != "" {
		if t, err := parsePublished(r.PublishedAt); err == nil {
			s.PublishedAt = &t
		}
	}
	return s, nil
}

func parsePublished(raw string) (time.Time, error) {
	if t, ok := dates.Parse(dates.Normalize(raw)); ok {
		return t, nil
	}
	return time.Time{}, goerr.New("unparseable published date", goerr.V("raw", raw))
}

// DomainOf returns the registrable-ish domain of a URL: the host with any
// leading "www." stripped. An unparseable URL yields "".
func DomainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// RateDomain returns the authority-map reliability for a domain, matching
// the registered name even when a subdomain is present. Unknown domains
// rate 1.
func RateDomain(domain string) int {
	if r, ok := authorityDomains[domain]; ok {
		return r
	}
	// en.wikipedia.org should rate like wikipedia.org.
	for suffix, r := range authorityDomains {
		if strings.HasSuffix(domain, "."+suffix) {
			return r
		}
	}
	return 1
}

// normalizeContent reduces HTML to visible text and collapses whitespace.
// Plain text passes through with the same whitespace collapsing.
func normalizeContent(content string) string {
	if looksLikeHTML(content) {
		if text, ok := visibleText(content); ok {
			content = text
		}
	}
	return strings.Join(strings.Fields(content), " ")
}

func looksLikeHTML(s string) bool {
	trimmed := strings.TrimSpace(s)
	return strings.HasPrefix(trimmed, "<") ||
		strings.Contains(trimmed, "<html") ||
		strings.Contains(trimmed, "<body") ||
		strings.Contains(trimmed, "<p>") ||
		strings.Contains(trimmed, "<div")
}

// visibleText walks the parsed document collecting text nodes, skipping
// script and style subtrees.
func visibleText(htmlContent string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", false
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return b.String(), true
}
