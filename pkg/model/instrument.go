package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AssetClass is the instrument family as served by the provider.
type AssetClass int

const (
	AssetClassStock AssetClass = iota
	AssetClassBond
	AssetClassETF
	AssetClassFund
	AssetClassWarrant
	AssetClassCertificate
	AssetClassIndex
	AssetClassCommodity
	AssetClassCurrency

	// NumAssetClasses is the number of known asset classes. Tables indexed by
	// AssetClass are sized with it.
	NumAssetClasses
)

var assetClassKeys = [NumAssetClasses]string{
	AssetClassStock:       "stock",
	AssetClassBond:        "bond",
	AssetClassETF:         "etf",
	AssetClassFund:        "fund",
	AssetClassWarrant:     "warrant",
	AssetClassCertificate: "certificate",
	AssetClassIndex:       "index",
	AssetClassCommodity:   "commodity",
	AssetClassCurrency:    "currency",
}

// provider display names, used as heading suffixes ("Siemens Aktie").
var assetClassDisplay = [NumAssetClasses]string{
	AssetClassStock:       "Aktie",
	AssetClassBond:        "Anleihe",
	AssetClassETF:         "ETF",
	AssetClassFund:        "Fonds",
	AssetClassWarrant:     "Optionsschein",
	AssetClassCertificate: "Zertifikat",
	AssetClassIndex:       "Index",
	AssetClassCommodity:   "Rohstoff",
	AssetClassCurrency:    "Währung",
}

// AllAssetClasses returns every known asset class in declaration order.
func AllAssetClasses() []AssetClass {
	out := make([]AssetClass, 0, NumAssetClasses)
	for c := AssetClass(0); c < NumAssetClasses; c++ {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the declared asset classes.
func (c AssetClass) Valid() bool {
	return c >= 0 && c < NumAssetClasses
}

func (c AssetClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("asset_class(%d)", int(c))
	}
	return assetClassKeys[c]
}

// DisplayName is the provider's German label for the class.
func (c AssetClass) DisplayName() string {
	if !c.Valid() {
		return ""
	}
	return assetClassDisplay[c]
}

// ParseAssetClass maps a canonical key ("stock", "warrant", ...) or a provider
// display name ("Aktie", "Optionsschein", ...) to an AssetClass.
func ParseAssetClass(s string) (AssetClass, error) {
	s = strings.TrimSpace(s)
	for c := AssetClass(0); c < NumAssetClasses; c++ {
		if strings.EqualFold(s, assetClassKeys[c]) || strings.EqualFold(s, assetClassDisplay[c]) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown asset class %q", s)
}

func (c AssetClass) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid asset class %d", int(c))
	}
	return json.Marshal(assetClassKeys[c])
}

func (c *AssetClass) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAssetClass(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TradingChannel distinguishes market-maker quoted venues from exchanges.
type TradingChannel int

const (
	ChannelLifeTrading TradingChannel = iota
	ChannelExchangeTrading
)

func (t TradingChannel) String() string {
	switch t {
	case ChannelLifeTrading:
		return "life_trading"
	case ChannelExchangeTrading:
		return "exchange_trading"
	default:
		return fmt.Sprintf("channel(%d)", int(t))
	}
}

// Venue is one trading venue of an instrument together with the provider's
// notation id for that venue's price feed.
type Venue struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// LiquiditySample is the liquidity figure for one venue in one channel.
// It only lives for the duration of a single extraction.
type LiquiditySample struct {
	VenueName string
	VenueID   string
	Metric    int64
}

// InstrumentRecord is the canonical base data of an instrument.
type InstrumentRecord struct {
	Name                            string            `json:"name"`
	PrimaryIdentifier               string            `json:"primary_identifier"`
	SecondaryIdentifier             *string           `json:"secondary_identifier,omitempty"`
	Symbol                          *string           `json:"symbol,omitempty"`
	AssetClass                      AssetClass        `json:"asset_class"`
	DefaultVenueID                  *string           `json:"default_venue_id,omitempty"`
	LifeTradingVenues               map[string]string `json:"life_trading_venues"`
	ExchangeTradingVenues           map[string]string `json:"exchange_trading_venues"`
	PreferredLifeTradingVenueID     *string           `json:"preferred_life_trading_venue_id,omitempty"`
	PreferredExchangeTradingVenueID *string           `json:"preferred_exchange_trading_venue_id,omitempty"`
}

// VenueID returns the notation id of the named venue in either channel.
func (r *InstrumentRecord) VenueID(name string) (string, bool) {
	if id, ok := r.LifeTradingVenues[name]; ok {
		return id, true
	}
	id, ok := r.ExchangeTradingVenues[name]
	return id, ok
}

// VenueName returns the venue name that carries the given notation id.
func (r *InstrumentRecord) VenueName(id string) (string, bool) {
	for name, v := range r.LifeTradingVenues {
		if v == id {
			return name, true
		}
	}
	for name, v := range r.ExchangeTradingVenues {
		if v == id {
			return name, true
		}
	}
	return "", false
}

// HasVenueID reports whether id is a notation id of this instrument.
func (r *InstrumentRecord) HasVenueID(id string) bool {
	_, ok := r.VenueName(id)
	return ok
}
