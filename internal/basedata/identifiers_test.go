package basedata

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

func TestValidWKN(t *testing.T) {
	for _, ok := range []string{"723610", "A0RPWH", "VQ1ABC", "918422"} {
		assert.True(t, ValidWKN(ok), ok)
	}
	for _, bad := range []string{"", "72361", "7236100", "A0RPWI", "O12345", "a0rpwh", "WKN:12"} {
		assert.False(t, ValidWKN(bad), bad)
	}
}

func TestValidISIN(t *testing.T) {
	for _, ok := range []string{"DE0007236101", "DE0007164600", "US0378331005", "US67066G1040", "IE00B4L5Y983", "DE000VQ1ABC6"} {
		assert.True(t, ValidISIN(ok), ok)
	}
	for _, bad := range []string{"", "DE000723610", "DE0007236102", "US0378331006", "de0007236101", "1E0007236101"} {
		assert.False(t, ValidISIN(bad), bad)
	}
}

func TestResolveAssetClass_FromURL(t *testing.T) {
	tests := []struct {
		path string
		want model.AssetClass
	}{
		{"/inf/aktien/detail/uebersicht.html", model.AssetClassStock},
		{"/inf/anleihen/detail/uebersicht.html", model.AssetClassBond},
		{"/inf/etfs/detail/uebersicht.html", model.AssetClassETF},
		{"/inf/fonds/detail/uebersicht.html", model.AssetClassFund},
		{"/inf/optionsscheine/detail/uebersicht/uebersicht.html", model.AssetClassWarrant},
		{"/inf/zertifikate/detail/uebersicht.html", model.AssetClassCertificate},
		{"/inf/indizes/detail/uebersicht.html", model.AssetClassIndex},
		{"/inf/rohstoffe/detail/uebersicht.html", model.AssetClassCommodity},
		{"/inf/waehrungen/detail/uebersicht.html", model.AssetClassCurrency},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			u, err := url.Parse("https://www.comdirect.de" + tt.path + "?ID_NOTATION=1")
			require.NoError(t, err)

			got, err := ResolveAssetClass(u, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, PathSegment(tt.want), PathSegment(got))
		})
	}
}

func TestResolveAssetClass_HintWins(t *testing.T) {
	u, _ := url.Parse("https://www.comdirect.de/inf/aktien/detail/uebersicht.html")
	hint := model.AssetClassWarrant

	got, err := ResolveAssetClass(u, &hint)
	require.NoError(t, err)
	assert.Equal(t, model.AssetClassWarrant, got)
}

func TestResolveAssetClass_Unresolved(t *testing.T) {
	for _, raw := range []string{
		"https://www.comdirect.de/inf/search/all.html?SEARCH_VALUE=XYZ",
		"https://www.comdirect.de/",
		"https://www.comdirect.de/inf",
	} {
		u, _ := url.Parse(raw)
		_, err := ResolveAssetClass(u, nil)
		require.Error(t, err, raw)
		assert.ErrorIs(t, err, ErrAssetClassUnresolved)
		assert.Contains(t, err.Error(), "instrument class unknown")

		var ue *AssetClassUnresolvedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, raw, ue.URL)
	}

	_, err := ResolveAssetClass(nil, nil)
	assert.ErrorIs(t, err, ErrAssetClassUnresolved)
}

func TestDefaultVenueID(t *testing.T) {
	u, _ := url.Parse("https://www.comdirect.de/inf/aktien/detail/uebersicht.html?SEARCH_VALUE=723610&ID_NOTATION=9385813")
	id := DefaultVenueID(u)
	require.True(t, id.IsSome())
	assert.Equal(t, "9385813", id.Unwrap())

	u, _ = url.Parse("https://www.comdirect.de/inf/aktien/detail/uebersicht.html?SEARCH_VALUE=723610")
	assert.True(t, DefaultVenueID(u).IsNone())
	assert.True(t, DefaultVenueID(nil).IsNone())
}
