package basedata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/moznion/go-optional"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// Extractor reads instrument fields from one provider document layout.
// Implementations are stateless and safe for concurrent use.
type Extractor interface {
	// ExtractName returns *MandatoryFieldMissingError when no name is found.
	ExtractName(doc *goquery.Document) (string, error)
	// ExtractPrimaryIdentifier returns the WKN, or *MandatoryFieldMissingError.
	ExtractPrimaryIdentifier(doc *goquery.Document) (string, error)
	// ExtractSecondaryIdentifier returns the raw ISIN token if present.
	ExtractSecondaryIdentifier(doc *goquery.Document) optional.Option[string]
	// RequiresSecondFetch reports whether venue data is only complete on the
	// document fetched with an explicit notation id.
	RequiresSecondFetch() bool
	ExtractVenueData(doc *goquery.Document) VenueData
}

// SymbolExtractor is implemented by extractors that can read a ticker symbol.
type SymbolExtractor interface {
	ExtractSymbol(doc *goquery.Document) optional.Option[string]
}

// headingFields reads name, WKN and ISIN from the page headline, shared by
// the provider's detail page layouts:
//
//	<h1>Siemens Aktie</h1>
//	<h2>WKN: 723610 ISIN: DE0007236101</h2>
type headingFields struct {
	suffix string
}

func (h headingFields) ExtractName(doc *goquery.Document) (string, error) {
	name := headingName(doc, h.suffix)
	if name == "" {
		return "", missing(FieldName)
	}
	return name, nil
}

func (h headingFields) ExtractPrimaryIdentifier(doc *goquery.Document) (string, error) {
	sub, ok := firstText(doc, "h2")
	if !ok {
		return "", missing(FieldPrimaryIdentifier)
	}
	wkn := afterLabel(sub, "WKN:")
	if wkn == "" {
		wkn = tokenAt(sub, 1)
	}
	wkn = strings.ToUpper(wkn)
	if !ValidWKN(wkn) {
		return "", missing(FieldPrimaryIdentifier)
	}
	return wkn, nil
}

func (h headingFields) ExtractSecondaryIdentifier(doc *goquery.Document) optional.Option[string] {
	sub, ok := firstText(doc, "h2")
	if !ok {
		return optional.None[string]()
	}
	isin := afterLabel(sub, "ISIN:")
	if isin == "" {
		isin = afterLabel(sub, "ISIN")
	}
	if len(isin) != 12 {
		return optional.None[string]()
	}
	return optional.Some(strings.ToUpper(isin))
}

// channelVenues discovers venues and splits them by channel.
func channelVenues(doc *goquery.Document) VenueData {
	life, exchange := categorizeVenues(discoverVenues(doc))
	return VenueData{LifeTrading: life, ExchangeTrading: exchange}
}

// sampleChannel fills the liquidity samples of one channel.
func sampleChannel(doc *goquery.Document, data *VenueData, ch model.TradingChannel) {
	samples := extractLiquidity(doc, data.Venues(ch), tableFor(ch), data)
	if ch == model.ChannelLifeTrading {
		data.LifeSamples = samples
	} else {
		data.ExchangeSamples = samples
	}
}
