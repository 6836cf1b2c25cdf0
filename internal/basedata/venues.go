package basedata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// LifeTradingPrefix marks market-maker venues ("LT Societe Generale").
// The prefix stays part of the venue name.
const LifeTradingPrefix = "LT "

var notationInPlugin = regexp.MustCompile(`ID_NOTATION(?:%3D|=)([0-9A-Za-z]+)`)

// VenueParseWarning describes a liquidity cell that could not be parsed.
// The venue is kept with liquidity 0.
type VenueParseWarning struct {
	Channel model.TradingChannel
	Venue   string
	Raw     string
	Err     error
}

// VenueData is everything an extractor reports about trading venues.
// Venue lists are in document order with unique names.
type VenueData struct {
	LifeTrading     []model.Venue
	ExchangeTrading []model.Venue
	LifeSamples     []model.LiquiditySample
	ExchangeSamples []model.LiquiditySample

	Warnings []VenueParseWarning
	// liquidity rows whose venue is not among the discovered venues
	Unmatched []string
}

// Venues returns the venue list of one channel.
func (d VenueData) Venues(ch model.TradingChannel) []model.Venue {
	if ch == model.ChannelLifeTrading {
		return d.LifeTrading
	}
	return d.ExchangeTrading
}

// Samples returns the liquidity samples of one channel.
func (d VenueData) Samples(ch model.TradingChannel) []model.LiquiditySample {
	if ch == model.ChannelLifeTrading {
		return d.LifeSamples
	}
	return d.ExchangeSamples
}

// IsLifeTrading reports whether a venue name belongs to the life-trading channel.
func IsLifeTrading(name string) bool {
	return strings.HasPrefix(name, LifeTradingPrefix)
}

// discoverVenues reads the venue selector, falling back to the single-venue
// quote table when no selector is rendered.
func discoverVenues(doc *goquery.Document) []model.Venue {
	if venues := venuesFromSelect(doc); len(venues) > 0 {
		return venues
	}
	return venueFromSimpleTable(doc)
}

func venuesFromSelect(doc *goquery.Document) []model.Venue {
	var venues []model.Venue
	seen := make(map[string]struct{})

	doc.Find("#marketSelect option").Each(func(_ int, opt *goquery.Selection) {
		name := cleanText(opt.AttrOr("label", ""))
		if name == "" {
			name = cleanText(opt.Text())
		}
		id := strings.TrimSpace(opt.AttrOr("value", ""))
		if name == "" || id == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		venues = append(venues, model.Venue{Name: name, ID: id})
	})
	return venues
}

// venueFromSimpleTable handles pages with a single venue: the venue name is
// the first cell, the notation id is embedded in the last row's plugin link.
func venueFromSimpleTable(doc *goquery.Document) []model.Venue {
	table := doc.Find("div.grid.grid--no-gutter table.simple-table").First()
	if table.Length() == 0 {
		return nil
	}
	rows := table.Find("tr")
	name := cleanText(rows.First().Find("td").First().Text())
	plugin, ok := rows.Last().Find("a[data-plugin]").First().Attr("data-plugin")
	if name == "" || !ok {
		return nil
	}
	id := notationFromPlugin(plugin)
	if id == "" {
		return nil
	}
	return []model.Venue{{Name: name, ID: id}}
}

func notationFromPlugin(plugin string) string {
	m := notationInPlugin.FindStringSubmatch(plugin)
	if m == nil {
		return ""
	}
	return m[1]
}

// categorizeVenues splits venues by channel, preserving order.
func categorizeVenues(venues []model.Venue) (life, exchange []model.Venue) {
	for _, v := range venues {
		if IsLifeTrading(v.Name) {
			life = append(life, v)
		} else {
			exchange = append(exchange, v)
		}
	}
	return life, exchange
}

// VenueMap converts an ordered venue list into a name -> id map. The first
// occurrence of a name wins.
func VenueMap(venues []model.Venue) map[string]string {
	m := make(map[string]string, len(venues))
	for _, v := range venues {
		if _, ok := m[v.Name]; !ok {
			m[v.Name] = v.ID
		}
	}
	return m
}
