package basedata

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// Column labels of the provider's quote statistics tables. They are matched
// literally.
const (
	LifeTradingMetric     = "Gestellte Kurse"
	ExchangeTradingMetric = "Anzahl Kurse"

	lifeTradingColumn     = "LiveTrading"
	exchangeTradingColumn = "Börse"
)

var changeQuotation = regexp.MustCompile(`changeQuotation\('([0-9A-Za-z]+)'\)`)

type liquidityTable struct {
	channel model.TradingChannel
	metric  string
	column  string // label of the venue-name column
}

var (
	lifeTradingTable     = liquidityTable{model.ChannelLifeTrading, LifeTradingMetric, lifeTradingColumn}
	exchangeTradingTable = liquidityTable{model.ChannelExchangeTrading, ExchangeTradingMetric, exchangeTradingColumn}
)

func tableFor(ch model.TradingChannel) liquidityTable {
	if ch == model.ChannelLifeTrading {
		return lifeTradingTable
	}
	return exchangeTradingTable
}

// extractLiquidity reads per-venue liquidity for one channel from every
// table whose header carries the channel's metric column. Samples are in
// table order; a venue is sampled at most once.
func extractLiquidity(doc *goquery.Document, venues []model.Venue, tbl liquidityTable, data *VenueData) []model.LiquiditySample {
	if len(venues) == 0 {
		return nil
	}

	byName := make(map[string]string, len(venues))
	byID := make(map[string]string, len(venues))
	for _, v := range venues {
		byName[v.Name] = v.ID
		byID[v.ID] = v.Name
	}

	var samples []model.LiquiditySample
	sampled := make(map[string]struct{})

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		metricCol := headerIndex(table, tbl.metric)
		if metricCol < 0 {
			return
		}

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.ChildrenFiltered("td")
			if cells.Length() == 0 {
				return
			}

			label := rowVenueName(cells.First(), tbl.column)
			if label == "" {
				return
			}

			id, name, ok := matchVenue(row, label, byName, byID)
			if !ok {
				data.Unmatched = append(data.Unmatched, label)
				return
			}
			if _, dup := sampled[id]; dup {
				return
			}

			raw := metricCell(cells, tbl.metric, metricCol)
			metric, err := ParseLiquidity(raw)
			if err != nil {
				data.Warnings = append(data.Warnings, VenueParseWarning{
					Channel: tbl.channel,
					Venue:   name,
					Raw:     raw,
					Err:     err,
				})
				metric = 0
			}

			sampled[id] = struct{}{}
			samples = append(samples, model.LiquiditySample{VenueName: name, VenueID: id, Metric: metric})
		})
	})
	return samples
}

// headerIndex returns the column of label among the table's header cells,
// or -1 when the table has no such column.
func headerIndex(table *goquery.Selection, label string) int {
	idx := -1
	headers := table.Find("thead th")
	if headers.Length() == 0 {
		headers = table.Find("tr").First().ChildrenFiltered("th")
	}
	headers.EachWithBreak(func(i int, th *goquery.Selection) bool {
		if strings.Contains(cleanText(th.Text()), label) {
			idx = i
			return false
		}
		return true
	})
	return idx
}

// rowVenueName reads the venue name from the first cell's data-label. When
// the label is just the column name the cell text carries the venue.
func rowVenueName(first *goquery.Selection, column string) string {
	label := cleanText(first.AttrOr("data-label", ""))
	if label == "" || label == column {
		label = cleanText(first.Text())
	}
	return label
}

// matchVenue maps a liquidity row to a discovered venue: by the row's own
// notation link, then by exact name, then by name with the life-trading
// prefix added.
func matchVenue(row *goquery.Selection, label string, byName, byID map[string]string) (id, name string, ok bool) {
	if onclick, has := row.Find("td.table__column-selector a").First().Attr("onclick"); has {
		if m := changeQuotation.FindStringSubmatch(onclick); m != nil {
			if name, ok := byID[m[1]]; ok {
				return m[1], name, true
			}
		}
	}
	if id, ok := byName[label]; ok {
		return id, label, true
	}
	if id, ok := byName[LifeTradingPrefix+label]; ok {
		return id, LifeTradingPrefix + label, true
	}
	return "", "", false
}

// metricCell prefers the cell labelled with the metric name and falls back
// to the header column position.
func metricCell(cells *goquery.Selection, metric string, col int) string {
	raw, found := "", false
	cells.EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if cleanText(td.AttrOr("data-label", "")) == metric {
			raw, found = cleanText(td.Text()), true
			return false
		}
		return true
	})
	if found {
		return raw
	}
	if col >= 0 && col < cells.Length() {
		return cleanText(cells.Eq(col).Text())
	}
	return ""
}
