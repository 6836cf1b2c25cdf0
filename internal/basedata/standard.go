package basedata

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/moznion/go-optional"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

const (
	stockInfoSection = "Aktieninformationen"
	symbolLabel      = "Symbol"
)

// StandardFamilyExtractor handles the shared detail layout of stocks, bonds,
// ETFs, funds and certificates.
type StandardFamilyExtractor struct {
	headingFields
	class   model.AssetClass
	refetch bool
}

// NewStandardFamilyExtractor builds the extractor for one class. refetch is
// set for classes whose first document lacks complete venue data.
func NewStandardFamilyExtractor(class model.AssetClass, refetch bool) *StandardFamilyExtractor {
	return &StandardFamilyExtractor{
		headingFields: headingFields{suffix: class.DisplayName()},
		class:         class,
		refetch:       refetch,
	}
}

func (e *StandardFamilyExtractor) RequiresSecondFetch() bool { return e.refetch }

func (e *StandardFamilyExtractor) ExtractVenueData(doc *goquery.Document) VenueData {
	data := channelVenues(doc)
	sampleChannel(doc, &data, model.ChannelLifeTrading)
	sampleChannel(doc, &data, model.ChannelExchangeTrading)
	return data
}

// ExtractSymbol reads the ticker from the stock information table. Only
// stock pages carry it.
func (e *StandardFamilyExtractor) ExtractSymbol(doc *goquery.Document) optional.Option[string] {
	if e.class != model.AssetClassStock {
		return optional.None[string]()
	}

	section := doc.Find(`:containsOwn("` + stockInfoSection + `")`).First()
	if section.Length() == 0 {
		return optional.None[string]()
	}

	symbol := ""
	section.Parent().Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(cleanText(th.Text()), symbolLabel) {
			return true
		}
		symbol = cleanText(th.NextAllFiltered("td").First().Text())
		return false
	})
	if symbol == "" || symbol == "--" {
		return optional.None[string]()
	}
	return optional.Some(symbol)
}
