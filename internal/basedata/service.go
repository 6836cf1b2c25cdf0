package basedata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/Checker-Finance/basedata-adapter/internal/metrics"
	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// ErrInvalidRequest is returned for requests without an identifier.
var ErrInvalidRequest = errors.New("invalid extraction request")

// FetchRequest names one provider document. AssetClass selects the detail
// page layout; without it the provider search resolves the instrument.
type FetchRequest struct {
	Identifier string
	AssetClass *model.AssetClass
	VenueID    string
}

// Document is a fetched provider page together with the URL it was served
// from after redirects.
type Document struct {
	Body []byte
	URL  *url.URL
}

// DocumentFetcher retrieves provider documents. Implementations own
// timeouts and retries and report failures as *FetchError.
type DocumentFetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*Document, error)
}

// Request is one extraction call.
type Request struct {
	Identifier string
	AssetClass *model.AssetClass // optional hint
	VenueID    string            // optional; pins the first fetch to a venue
}

// FetchState is a step of the two-phase fetch protocol.
type FetchState int

const (
	StateInitial FetchState = iota
	StateAwaitingRefetch
	StateComplete
)

func (s FetchState) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateAwaitingRefetch:
		return "AWAITING_REFETCH"
	case StateComplete:
		return "COMPLETE"
	default:
		return fmt.Sprintf("FetchState(%d)", int(s))
	}
}

// FetchPlan records how one extraction fetched its documents.
type FetchPlan struct {
	States         []FetchState
	Fetches        int
	AssetClass     model.AssetClass
	Registered     bool
	DefaultVenueID string
	ResolvedURL    string
}

// Refetched reports whether a second document was fetched.
func (p *FetchPlan) Refetched() bool { return p.Fetches > 1 }

func (p *FetchPlan) enter(s FetchState) { p.States = append(p.States, s) }

// Service extracts instrument records from provider documents.
type Service struct {
	logger   *zap.Logger
	fetcher  DocumentFetcher
	registry *Registry
}

func NewService(logger *zap.Logger, fetcher DocumentFetcher, registry *Registry) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{logger: logger, fetcher: fetcher, registry: registry}
}

// ExtractInstrument fetches and parses the documents of one instrument and
// returns a complete record or a typed error.
func (s *Service) ExtractInstrument(ctx context.Context, req Request) (*model.InstrumentRecord, error) {
	rec, _, err := s.ExtractWithPlan(ctx, req)
	return rec, err
}

// ExtractWithPlan is ExtractInstrument that also returns the fetch plan
// executed. The plan is returned even on failure.
func (s *Service) ExtractWithPlan(ctx context.Context, req Request) (*model.InstrumentRecord, *FetchPlan, error) {
	plan := &FetchPlan{}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, plan, fmt.Errorf("%w: identifier is required", ErrInvalidRequest)
	}
	venueID := strings.TrimSpace(req.VenueID)

	plan.enter(StateInitial)
	plan.Fetches++
	first, err := s.fetch(ctx, FetchRequest{Identifier: identifier, AssetClass: req.AssetClass, VenueID: venueID}, "initial")
	if err != nil {
		return nil, plan, err
	}
	plan.ResolvedURL = first.URL.String()

	class, err := ResolveAssetClass(first.URL, req.AssetClass)
	if err != nil {
		metrics.IncExtraction("unknown", "unresolved")
		s.logger.Warn("basedata.asset_class_unresolved",
			zap.String("identifier", identifier),
			zap.String("url", plan.ResolvedURL))
		return nil, plan, err
	}
	plan.AssetClass = class

	extractor, registered := s.registry.Lookup(class)
	plan.Registered = registered
	if !registered {
		metrics.IncWarning("unregistered_asset_class")
		s.logger.Warn("basedata.unregistered_asset_class",
			zap.String("identifier", identifier),
			zap.String("asset_class", class.String()))
	}

	defaultVenue := DefaultVenueID(first.URL)
	if defaultVenue.IsNone() && venueID != "" {
		defaultVenue = optional.Some(venueID)
	}
	if defaultVenue.IsSome() {
		plan.DefaultVenueID = defaultVenue.Unwrap()
	}

	authoritative := first
	if extractor.RequiresSecondFetch() && defaultVenue.IsSome() && venueID == "" {
		plan.enter(StateAwaitingRefetch)
		s.logger.Debug("basedata.refetch",
			zap.String("identifier", identifier),
			zap.String("asset_class", class.String()),
			zap.String("venue_id", plan.DefaultVenueID))

		plan.Fetches++
		second, err := s.fetch(ctx, FetchRequest{Identifier: identifier, AssetClass: &class, VenueID: plan.DefaultVenueID}, "refetch")
		if err != nil {
			return nil, plan, err
		}
		authoritative = second
	}
	plan.enter(StateComplete)

	if err := ctx.Err(); err != nil {
		return nil, plan, err
	}

	doc, err := ParseDocument(authoritative.Body)
	if err != nil {
		return nil, plan, &FetchError{Identifier: identifier, URL: authoritative.URL.String(), Err: err}
	}

	rec, err := s.assemble(identifier, class, extractor, registered, doc, defaultVenue)
	if err != nil {
		metrics.IncExtraction(class.String(), "error")
		return nil, plan, err
	}

	if venueID != "" {
		if name, ok := rec.VenueName(venueID); ok {
			s.logger.Debug("basedata.pinned_venue",
				zap.String("identifier", identifier),
				zap.String("venue_id", venueID),
				zap.String("venue", name))
		} else {
			metrics.IncWarning("pinned_venue_unknown")
			s.logger.Warn("basedata.pinned_venue_unknown",
				zap.String("identifier", identifier),
				zap.String("venue_id", venueID))
		}
	}

	metrics.IncExtraction(class.String(), "ok")
	s.logger.Info("basedata.extracted",
		zap.String("identifier", identifier),
		zap.String("asset_class", class.String()),
		zap.Int("fetches", plan.Fetches),
		zap.Int("life_trading_venues", len(rec.LifeTradingVenues)),
		zap.Int("exchange_trading_venues", len(rec.ExchangeTradingVenues)))
	return rec, plan, nil
}

func (s *Service) fetch(ctx context.Context, req FetchRequest, phase string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := "unknown"
	if req.AssetClass != nil {
		label = req.AssetClass.String()
	}

	start := time.Now()
	doc, err := s.fetcher.Fetch(ctx, req)
	metrics.ObserveDuration(metrics.FetchDuration, start, phase)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.IncFetch(label, "error")
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{Identifier: req.Identifier, Err: err}
		}
		s.logger.Warn("basedata.fetch_failed",
			zap.String("identifier", req.Identifier),
			zap.String("phase", phase),
			zap.Error(err))
		return nil, err
	}
	if doc == nil || doc.URL == nil {
		metrics.IncFetch(label, "error")
		return nil, &FetchError{Identifier: req.Identifier, Err: errors.New("empty document")}
	}
	metrics.IncFetch(label, "ok")
	return doc, nil
}

// assemble builds the record from the authoritative document and checks the
// record invariants before returning it.
func (s *Service) assemble(identifier string, class model.AssetClass, ext Extractor, registered bool, doc *goquery.Document, defaultVenue optional.Option[string]) (*model.InstrumentRecord, error) {
	name, err := ext.ExtractName(doc)
	if err != nil {
		return nil, withIdentifier(err, identifier)
	}
	wkn, err := ext.ExtractPrimaryIdentifier(doc)
	switch {
	case err == nil:
	case !registered && errors.Is(err, ErrMandatoryFieldMissing):
		// generic layouts often carry no WKN label; the request names the instrument
		wkn = strings.ToUpper(identifier)
		s.logger.Debug("basedata.primary_identifier_from_request",
			zap.String("identifier", identifier),
			zap.String("asset_class", class.String()))
	default:
		return nil, withIdentifier(err, identifier)
	}

	rec := &model.InstrumentRecord{
		Name:              name,
		PrimaryIdentifier: wkn,
		AssetClass:        class,
		DefaultVenueID:    ptr(defaultVenue),
	}

	if isin := ext.ExtractSecondaryIdentifier(doc); isin.IsSome() {
		if ValidISIN(isin.Unwrap()) {
			rec.SecondaryIdentifier = ptr(isin)
		} else {
			metrics.IncWarning("invalid_secondary_identifier")
			s.logger.Warn("basedata.invalid_secondary_identifier",
				zap.String("identifier", identifier),
				zap.String("raw", isin.Unwrap()))
		}
	}
	if se, ok := ext.(SymbolExtractor); ok {
		rec.Symbol = ptr(se.ExtractSymbol(doc))
	}

	venues := ext.ExtractVenueData(doc)
	for _, w := range venues.Warnings {
		metrics.IncWarning("venue_parse")
		s.logger.Warn("basedata.venue_parse_warning",
			zap.String("identifier", identifier),
			zap.String("channel", w.Channel.String()),
			zap.String("venue", w.Venue),
			zap.String("raw", w.Raw),
			zap.Error(w.Err))
	}
	for _, name := range venues.Unmatched {
		s.logger.Debug("basedata.liquidity_row_unmatched",
			zap.String("identifier", identifier),
			zap.String("venue", name))
	}

	for _, ch := range []model.TradingChannel{model.ChannelLifeTrading, model.ChannelExchangeTrading} {
		m := VenueMap(venues.Venues(ch))
		preferred := ptr(PreferredVenue(venues.Venues(ch), venues.Samples(ch)))
		if ch == model.ChannelLifeTrading {
			rec.LifeTradingVenues, rec.PreferredLifeTradingVenueID = m, preferred
		} else {
			rec.ExchangeTradingVenues, rec.PreferredExchangeTradingVenueID = m, preferred
		}
	}

	if err := checkRecord(rec); err != nil {
		metrics.IncError("basedata", "invariant")
		s.logger.Error("basedata.inconsistent_record",
			zap.String("identifier", identifier),
			zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// checkRecord verifies that preferred ids belong to their channel and that
// no venue name appears in both channels.
func checkRecord(rec *model.InstrumentRecord) error {
	for name := range rec.LifeTradingVenues {
		if _, dup := rec.ExchangeTradingVenues[name]; dup {
			return fmt.Errorf("venue %q listed in both trading channels", name)
		}
	}
	if !preferredInMap(rec.PreferredLifeTradingVenueID, rec.LifeTradingVenues) {
		return fmt.Errorf("preferred life trading venue %q not among life trading venues", *rec.PreferredLifeTradingVenueID)
	}
	if !preferredInMap(rec.PreferredExchangeTradingVenueID, rec.ExchangeTradingVenues) {
		return fmt.Errorf("preferred exchange venue %q not among exchange venues", *rec.PreferredExchangeTradingVenueID)
	}
	return nil
}

func preferredInMap(id *string, venues map[string]string) bool {
	if id == nil {
		return true
	}
	for _, v := range venues {
		if v == *id {
			return true
		}
	}
	return false
}

func withIdentifier(err error, identifier string) error {
	var mf *MandatoryFieldMissingError
	if errors.As(err, &mf) && mf.Identifier == "" {
		mf.Identifier = identifier
	}
	return err
}

func ptr(o optional.Option[string]) *string {
	if o.IsNone() {
		return nil
	}
	v := o.Unwrap()
	return &v
}
