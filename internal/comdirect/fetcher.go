package comdirect

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/Checker-Finance/basedata-adapter/internal/basedata"
	"github.com/Checker-Finance/basedata-adapter/internal/httpclient"
	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

const (
	searchPath  = "/inf/search/all.html"
	searchParam = "SEARCH_VALUE"

	DefaultBaseURL = "https://www.comdirect.de"
)

// Getter is the transport the fetcher runs on; *httpclient.Executor
// implements it.
type Getter interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*httpclient.Response, error)
}

// Fetcher retrieves comdirect instrument pages.
type Fetcher struct {
	logger    *zap.Logger
	http      Getter
	baseURL   string
	userAgent string
}

func NewFetcher(logger *zap.Logger, getter Getter, baseURL, userAgent string) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		logger:    logger,
		http:      getter,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
	}
}

// DetailPath returns the overview page path for an asset class.
func DetailPath(class model.AssetClass) string {
	segment := basedata.PathSegment(class)
	if class == model.AssetClassWarrant {
		return "/inf/" + segment + "/detail/uebersicht/uebersicht.html"
	}
	return "/inf/" + segment + "/detail/uebersicht.html"
}

// DocumentURL builds the page URL for a fetch request. Without an asset
// class the provider search is used and resolves the instrument by redirect.
func (f *Fetcher) DocumentURL(req basedata.FetchRequest) string {
	q := url.Values{}
	q.Set(searchParam, req.Identifier)

	if req.VenueID != "" {
		q.Set(basedata.VenueIDParam, req.VenueID)
	}

	path := searchPath
	if req.AssetClass != nil && req.AssetClass.Valid() {
		path = DetailPath(*req.AssetClass)
	}
	return f.baseURL + path + "?" + q.Encode()
}

// Fetch implements basedata.DocumentFetcher.
func (f *Fetcher) Fetch(ctx context.Context, req basedata.FetchRequest) (*basedata.Document, error) {
	target := f.DocumentURL(req)

	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml")
	header.Set("Accept-Language", "de-DE,de;q=0.9")
	if f.userAgent != "" {
		header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.http.Get(ctx, target, header)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		f.logger.Warn("comdirect.fetch_failed",
			zap.String("identifier", req.Identifier),
			zap.String("url", target),
			zap.Error(err))
		return nil, &basedata.FetchError{
			Identifier: req.Identifier,
			URL:        target,
			Status:     httpclient.StatusOf(err),
			Err:        err,
		}
	}
	if len(resp.Body) == 0 {
		return nil, &basedata.FetchError{
			Identifier: req.Identifier,
			URL:        target,
			Status:     resp.Status,
			Err:        errors.New("empty body"),
		}
	}

	f.logger.Debug("comdirect.fetched",
		zap.String("identifier", req.Identifier),
		zap.String("url", target),
		zap.String("resolved_url", resp.FinalURL.String()),
		zap.Int("bytes", len(resp.Body)))

	return &basedata.Document{Body: resp.Body, URL: resp.FinalURL}, nil
}
