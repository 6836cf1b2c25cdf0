package basedata

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseDocument parses an HTML body into a queryable document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// cleanText collapses whitespace runs (nbsp included) into single spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstText(doc *goquery.Document, selector string) (string, bool) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false
	}
	return cleanText(sel.Text()), true
}

// headingName returns the h1 text with the display suffix removed.
func headingName(doc *goquery.Document, suffix string) string {
	text, ok := firstText(doc, "h1")
	if !ok {
		return ""
	}
	return stripSuffix(text, suffix)
}

// stripSuffix removes the last word equal to suffix; "NVIDIA Aktie" -> "NVIDIA".
func stripSuffix(text, suffix string) string {
	fields := strings.Fields(text)
	if suffix == "" {
		return strings.Join(fields, " ")
	}
	for i := len(fields) - 1; i >= 0; i-- {
		if strings.EqualFold(fields[i], suffix) {
			fields = append(fields[:i], fields[i+1:]...)
			break
		}
	}
	return strings.Join(fields, " ")
}

// afterLabel returns the first whitespace-delimited token following label
// in text, or "" when label is absent.
func afterLabel(text, label string) string {
	idx := strings.Index(text, label)
	if idx < 0 {
		idx = strings.Index(strings.ToUpper(text), strings.ToUpper(label))
		if idx < 0 {
			return ""
		}
	}
	fields := strings.Fields(text[idx+len(label):])
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], ",;/")
}

// tokenAt returns the whitespace-delimited token at position i, or "".
func tokenAt(text string, i int) string {
	fields := strings.Fields(text)
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}
