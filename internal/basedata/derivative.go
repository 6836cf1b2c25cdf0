package basedata

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// DerivativeExtractor handles warrant pages. Venue data is only complete on
// the document fetched with a notation id, so it always refetches.
type DerivativeExtractor struct {
	headingFields
}

func NewDerivativeExtractor(class model.AssetClass) *DerivativeExtractor {
	return &DerivativeExtractor{headingFields: headingFields{suffix: class.DisplayName()}}
}

func (e *DerivativeExtractor) RequiresSecondFetch() bool { return true }

// ExtractVenueData skips liquidity sampling for a channel with a single
// venue; that venue is preferred without comparison.
func (e *DerivativeExtractor) ExtractVenueData(doc *goquery.Document) VenueData {
	data := channelVenues(doc)
	for _, ch := range []model.TradingChannel{model.ChannelLifeTrading, model.ChannelExchangeTrading} {
		if len(data.Venues(ch)) == 1 {
			continue
		}
		sampleChannel(doc, &data, ch)
	}
	return data
}
