// Package openapi holds the wire types and chi binding for api/openapi.yaml.
package openapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// Ticker is one ranked record.
type Ticker struct {
	Symbol             string  `json:"symbol"`
	DisplayName        *string `json:"displayName,omitempty"`
	LastPrice          float64 `json:"lastPrice"`
	PriceChangePercent float64 `json:"priceChangePercent"`
	QuoteVolume        float64 `json:"quoteVolume"`
}

type Ranking struct {
	Rank   int     `json:"rank"`
	Volume float64 `json:"volume"`
}

type Snapshot struct {
	Time      string             `json:"time"`
	Timestamp int64              `json:"timestamp"`
	Rankings  map[string]Ranking `json:"rankings"`
}

// TickersResponse is the body of GET /api/tickers/{source}. Timestamp is the
// epoch milliseconds of the fetch the data came from.
type TickersResponse struct {
	Data      []Ticker    `json:"data"`
	Timestamp int64       `json:"timestamp"`
	Total     int         `json:"total"`
	Snapshots *[]Snapshot `json:"snapshots,omitempty"`
}

type Source struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type SourcesResponse struct {
	Sources []Source `json:"sources"`
}

type RefreshAccepted struct {
	Source string `json:"source"`
	Status string `json:"status"`
}

type SourceHealth struct {
	HasData       bool   `json:"hasData"`
	SnapshotCount int    `json:"snapshotCount"`
	LastUpdate    *int64 `json:"lastUpdate"`
}

type Memory struct {
	RSS uint64 `json:"rss"`
}

type HealthResponse struct {
	Status    string                  `json:"status"`
	Uptime    float64                 `json:"uptime"`
	StartedAt int64                   `json:"startedAt"`
	Scheduler string                  `json:"scheduler"`
	Memory    *Memory                 `json:"memory,omitempty"`
	Sources   map[string]SourceHealth `json:"sources"`
}

// Error is the envelope of every non-2xx answer.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type GetTickersParams struct {
	// Limit trims data to the first N records (1..100).
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
	// Snapshots=false omits the history.
	Snapshots *bool `form:"snapshots,omitempty" json:"snapshots,omitempty"`
}

type RefreshTickersParams struct {
	XIdempotencyKey *string `json:"X-Idempotency-Key,omitempty"`
}

type ServerInterface interface {
	// (GET /api/sources)
	ListSources(w http.ResponseWriter, r *http.Request)
	// (GET /api/tickers/{source})
	GetTickers(w http.ResponseWriter, r *http.Request, source string, params GetTickersParams)
	// (POST /api/tickers/{source}/refresh)
	RefreshTickers(w http.ResponseWriter, r *http.Request, source string, params RefreshTickersParams)
	// (GET /api/health)
	GetHealth(w http.ResponseWriter, r *http.Request)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type wrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *wrapper) ListSources(w http.ResponseWriter, r *http.Request) {
	siw.Handler.ListSources(w, r)
}

func (siw *wrapper) GetTickers(w http.ResponseWriter, r *http.Request) {
	var source string
	err := runtime.BindStyledParameterWithOptions("simple", "source", chi.URLParam(r, "source"), &source,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "source", Err: err})
		return
	}

	var params GetTickersParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "snapshots", r.URL.Query(), &params.Snapshots); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "snapshots", Err: err})
		return
	}
	siw.Handler.GetTickers(w, r, source, params)
}

func (siw *wrapper) RefreshTickers(w http.ResponseWriter, r *http.Request) {
	var source string
	err := runtime.BindStyledParameterWithOptions("simple", "source", chi.URLParam(r, "source"), &source,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "source", Err: err})
		return
	}

	var params RefreshTickersParams
	if v := r.Header.Values("X-Idempotency-Key"); len(v) > 0 {
		var key string
		err := runtime.BindStyledParameterWithOptions("simple", "X-Idempotency-Key", v[0], &key,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
		if err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "X-Idempotency-Key", Err: err})
			return
		}
		params.XIdempotencyKey = &key
	}
	siw.Handler.RefreshTickers(w, r, source, params)
}

func (siw *wrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetHealth(w, r)
}

// HandlerWithOptions mounts si on options.BaseRouter (a new router if nil).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	siw := &wrapper{Handler: si, ErrorHandlerFunc: options.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/api/sources", siw.ListSources)
		r.Get(options.BaseURL+"/api/tickers/{source}", siw.GetTickers)
		r.Post(options.BaseURL+"/api/tickers/{source}/refresh", siw.RefreshTickers)
		r.Get(options.BaseURL+"/api/health", siw.GetHealth)
	})
	return r
}
