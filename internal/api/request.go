package api

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Checker-Finance/basedata-adapter/internal/basedata"
	"github.com/Checker-Finance/basedata-adapter/internal/store"
	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9]{6,12}$`)
	venueIDPattern    = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)
)

// BaseDataRequest is the query of a base data lookup.
type BaseDataRequest struct {
	Identifier string `params:"identifier" example:"723610"`
	AssetClass string `query:"asset_class" example:"stock"`
	VenueID    string `query:"venue_id" example:"9385813"`
}

// Validate checks the request and normalizes its fields.
func (r *BaseDataRequest) Validate() error {
	r.Identifier = strings.ToUpper(strings.TrimSpace(r.Identifier))
	r.AssetClass = strings.TrimSpace(r.AssetClass)
	r.VenueID = strings.TrimSpace(r.VenueID)

	if r.Identifier == "" {
		return fmt.Errorf("identifier is required")
	}
	if !identifierPattern.MatchString(r.Identifier) {
		return fmt.Errorf("identifier must be 6 to 12 alphanumeric characters")
	}
	if r.AssetClass != "" {
		if _, err := model.ParseAssetClass(r.AssetClass); err != nil {
			return err
		}
	}
	if r.VenueID != "" && !venueIDPattern.MatchString(r.VenueID) {
		return fmt.Errorf("venue_id must be alphanumeric")
	}
	return nil
}

// toServiceRequest converts a validated request.
func (r BaseDataRequest) toServiceRequest() basedata.Request {
	req := basedata.Request{Identifier: r.Identifier, VenueID: r.VenueID}
	if r.AssetClass != "" {
		if c, err := model.ParseAssetClass(r.AssetClass); err == nil {
			req.AssetClass = &c
		}
	}
	return req
}

func (r BaseDataRequest) cacheKey() store.RecordKey {
	key := store.RecordKey{Identifier: r.Identifier, VenueID: r.VenueID}
	if r.AssetClass != "" {
		if c, err := model.ParseAssetClass(r.AssetClass); err == nil {
			key.AssetClass = c.String()
		}
	}
	return key
}

// ErrorResponse is returned for any failed lookup.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
