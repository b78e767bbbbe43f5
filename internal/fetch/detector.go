package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Detector decides whether a fetched page is a JavaScript shell that needs
// a headless render to expose its content.
type Detector struct {
	minHTMLBytes int
	keywords     []string
}

// NewDetector constructs a Detector with the configured thresholds.
func NewDetector(minBytes int, keywords []string) *Detector {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Detector{minHTMLBytes: minBytes, keywords: lowered}
}

// NeedsJS inspects the page for signals that indicate JS rendering is
// required: a suspiciously small body, shell-framework markers, or a
// document whose visible text is effectively empty.
func (d *Detector) NeedsJS(body string) bool {
	if d == nil || body == "" {
		return false
	}
	if d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes {
		return true
	}
	lower := strings.ToLower(body)
	for _, kw := range d.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return false
	}
	return strings.TrimSpace(doc.Find("body").Text()) == ""
}
