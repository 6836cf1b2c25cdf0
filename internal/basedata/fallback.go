package basedata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/moznion/go-optional"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

var (
	looseWKN  = regexp.MustCompile(`WKN:?\s*([A-HJ-NP-Z0-9]{6})\b`)
	looseISIN = regexp.MustCompile(`ISIN:?\s*([A-Z]{2}[A-Z0-9]{10})\b`)
)

// FallbackExtractor scrapes generic headline and label patterns for asset
// classes without a dedicated layout. It never samples liquidity.
type FallbackExtractor struct{}

func (FallbackExtractor) RequiresSecondFetch() bool { return false }

func (FallbackExtractor) ExtractName(doc *goquery.Document) (string, error) {
	if text, ok := firstText(doc, "h1"); ok {
		if name := stripKnownSuffix(text); name != "" {
			return name, nil
		}
	}
	if title := cleanText(doc.Find(`meta[property="og:title"]`).First().AttrOr("content", "")); title != "" {
		return stripKnownSuffix(title), nil
	}
	return "", missing(FieldName)
}

func (FallbackExtractor) ExtractPrimaryIdentifier(doc *goquery.Document) (string, error) {
	if wkn := findLabelled(doc, looseWKN); wkn != "" {
		return wkn, nil
	}
	return "", missing(FieldPrimaryIdentifier)
}

func (FallbackExtractor) ExtractSecondaryIdentifier(doc *goquery.Document) optional.Option[string] {
	if isin := findLabelled(doc, looseISIN); isin != "" {
		return optional.Some(isin)
	}
	return optional.None[string]()
}

func (FallbackExtractor) ExtractVenueData(doc *goquery.Document) VenueData {
	life, exchange := categorizeVenues(venuesFromSelect(doc))
	return VenueData{LifeTrading: life, ExchangeTrading: exchange}
}

// findLabelled searches the headline area first, then the whole body.
func findLabelled(doc *goquery.Document, re *regexp.Regexp) string {
	for _, text := range []string{
		cleanText(doc.Find("h2").First().Text()),
		cleanText(doc.Find("body").Text()),
	} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func stripKnownSuffix(text string) string {
	fields := strings.Fields(text)
	if len(fields) > 1 {
		last := fields[len(fields)-1]
		for _, c := range model.AllAssetClasses() {
			if strings.EqualFold(last, c.DisplayName()) {
				return strings.Join(fields[:len(fields)-1], " ")
			}
		}
	}
	return strings.Join(fields, " ")
}
