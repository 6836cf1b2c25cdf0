package basedata

import (
	"errors"
	"fmt"
)

var (
	// ErrDocumentFetch matches any *FetchError.
	ErrDocumentFetch = errors.New("document fetch failed")
	// ErrAssetClassUnresolved matches any *AssetClassUnresolvedError.
	ErrAssetClassUnresolved = errors.New("instrument class unknown")
	// ErrMandatoryFieldMissing matches any *MandatoryFieldMissingError.
	ErrMandatoryFieldMissing = errors.New("mandatory field missing")
)

// FetchError reports a provider document that could not be retrieved.
// Status is the last HTTP status seen, or 0 for transport failures.
type FetchError struct {
	Identifier string
	URL        string
	Status     int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s from %s: status %d: %v", e.Identifier, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s from %s: %v", e.Identifier, e.URL, e.Err)
}

func (e *FetchError) Is(target error) bool { return target == ErrDocumentFetch }
func (e *FetchError) Unwrap() error        { return e.Err }

// AssetClassUnresolvedError is returned when neither the resolved URL nor a
// caller hint names a known asset class.
type AssetClassUnresolvedError struct {
	URL     string
	Segment string
}

func (e *AssetClassUnresolvedError) Error() string {
	return fmt.Sprintf("%s: url %s (segment %q)", ErrAssetClassUnresolved, e.URL, e.Segment)
}

func (e *AssetClassUnresolvedError) Is(target error) bool { return target == ErrAssetClassUnresolved }

// Mandatory record fields.
const (
	FieldName              = "name"
	FieldPrimaryIdentifier = "primary_identifier"
)

// MandatoryFieldMissingError is returned when a required record field cannot
// be located in the authoritative document.
type MandatoryFieldMissingError struct {
	Identifier string
	Field      string
}

func (e *MandatoryFieldMissingError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("%s: %s", ErrMandatoryFieldMissing, e.Field)
	}
	return fmt.Sprintf("%s: %s for %s", ErrMandatoryFieldMissing, e.Field, e.Identifier)
}

func (e *MandatoryFieldMissingError) Is(target error) bool { return target == ErrMandatoryFieldMissing }

func missing(field string) error {
	return &MandatoryFieldMissingError{Field: field}
}
