package model

import "time"

// Source is one crawled document about a subject. Sources arrive from the
// research/crawling layer already fetched; they are immutable once recorded.
type Source struct {
	ID          string     `json:"id" yaml:"id"`
	URL         string     `json:"url" yaml:"url"`
	Domain      string     `json:"domain" yaml:"domain"`
	Title       string     `json:"title" yaml:"title"`
	Content     string     `json:"content" yaml:"content"`
	Reliability int        `json:"reliability" yaml:"reliability"` // ordinal 1-5
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// ClampReliability forces the ordinal scale into [1,5]. Intake data from
// third-party crawlers is not trusted to stay in range.
func ClampReliability(r int) int {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}
