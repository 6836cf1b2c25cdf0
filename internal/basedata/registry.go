package basedata

import "github.com/Checker-Finance/basedata-adapter/pkg/model"

type registryEntry struct {
	extractor  Extractor
	registered bool
}

// Registry maps every asset class to an extractor. It is built once and
// never mutated, so it is shared across concurrent extractions.
type Registry struct {
	table    [model.NumAssetClasses]registryEntry
	fallback Extractor
}

// NewRegistry builds the extractor table. Every slot is filled; classes
// without a dedicated layout get the fallback and are marked unregistered.
func NewRegistry() *Registry {
	r := &Registry{fallback: FallbackExtractor{}}
	for _, class := range model.AllAssetClasses() {
		r.table[class] = r.entryFor(class)
	}
	return r
}

func (r *Registry) entryFor(class model.AssetClass) registryEntry {
	switch class {
	case model.AssetClassStock:
		return registryEntry{NewStandardFamilyExtractor(class, true), true}
	case model.AssetClassBond, model.AssetClassETF, model.AssetClassFund, model.AssetClassCertificate:
		return registryEntry{NewStandardFamilyExtractor(class, false), true}
	case model.AssetClassWarrant:
		return registryEntry{NewDerivativeExtractor(class), true}
	default:
		// index, commodity and currency pages have no dedicated layout
		return registryEntry{r.fallback, false}
	}
}

// Lookup returns the extractor for class and whether a dedicated extractor
// is registered. It never returns nil.
func (r *Registry) Lookup(class model.AssetClass) (Extractor, bool) {
	if !class.Valid() {
		return r.fallback, false
	}
	e := r.table[class]
	return e.extractor, e.registered
}
