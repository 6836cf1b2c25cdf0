package basedata

import (
	"net/url"
	"strings"

	"github.com/moznion/go-optional"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

// VenueIDParam carries the provider notation id in document URLs.
const VenueIDParam = "ID_NOTATION"

// path segment of /inf/<segment>/detail/... per asset class
var classSegments = [model.NumAssetClasses]string{
	model.AssetClassStock:       "aktien",
	model.AssetClassBond:        "anleihen",
	model.AssetClassETF:         "etfs",
	model.AssetClassFund:        "fonds",
	model.AssetClassWarrant:     "optionsscheine",
	model.AssetClassCertificate: "zertifikate",
	model.AssetClassIndex:       "indizes",
	model.AssetClassCommodity:   "rohstoffe",
	model.AssetClassCurrency:    "waehrungen",
}

// PathSegment returns the provider URL path segment for class.
func PathSegment(class model.AssetClass) string {
	if !class.Valid() {
		return ""
	}
	return classSegments[class]
}

// ResolveAssetClass determines the asset class of a document. A caller hint
// wins; otherwise the class is read from the second path segment of the
// resolved URL.
func ResolveAssetClass(resolved *url.URL, hint *model.AssetClass) (model.AssetClass, error) {
	if hint != nil && hint.Valid() {
		return *hint, nil
	}

	var raw, segment string
	if resolved != nil {
		raw = resolved.String()
		parts := strings.Split(strings.Trim(resolved.Path, "/"), "/")
		if len(parts) >= 2 {
			segment = strings.ToLower(parts[1])
		}
	}
	if segment != "" {
		for c, s := range classSegments {
			if s == segment {
				return model.AssetClass(c), nil
			}
		}
	}
	return 0, &AssetClassUnresolvedError{URL: raw, Segment: segment}
}

// DefaultVenueID returns the notation id the provider selected when
// resolving the document, read from the resolved URL's query.
func DefaultVenueID(resolved *url.URL) optional.Option[string] {
	if resolved == nil {
		return optional.None[string]()
	}
	id := strings.TrimSpace(resolved.Query().Get(VenueIDParam))
	if id == "" {
		return optional.None[string]()
	}
	return optional.Some(id)
}
