package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"tickerboard/internal/application"
	"tickerboard/internal/domain"
	"tickerboard/internal/infrastructure/http/openapi"
	"tickerboard/internal/infrastructure/logx"
	"tickerboard/internal/infrastructure/worker"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// Tickers is the read side of the ticker service plus manual refresh
// reservation.
type Tickers interface {
	Sources() []domain.SourceID
	StartedAt() time.Time
	Latest(ctx context.Context, id domain.SourceID) (application.SourceView, error)
	ReserveRefresh(ctx context.Context, id domain.SourceID, idemKey *string) error
	Health(ctx context.Context) []application.SourceHealth
}

// RefreshQueue accepts manual refresh requests.
type RefreshQueue interface {
	Enqueue(m worker.RefreshMsg) bool
}

// SchedulerStatus exposes startup readiness and the pass state.
type SchedulerStatus interface {
	Ready() bool
	State() worker.State
}

var _ openapi.ServerInterface = (*Server)(nil)

type Server struct {
	svc    Tickers
	queue  RefreshQueue
	sched  SchedulerStatus
	checks []func(ctx context.Context) error
	now    func() time.Time
}

func NewServer(svc Tickers, queue RefreshQueue, sched SchedulerStatus) *Server {
	return &Server{svc: svc, queue: queue, sched: sched, now: time.Now}
}

// AddReadyCheck registers a dependency probe for /readyz.
func (s *Server) AddReadyCheck(fn func(ctx context.Context) error) {
	s.checks = append(s.checks, fn)
}

func (s *Server) ListSources(w http.ResponseWriter, _ *http.Request) {
	ids := s.svc.Sources()
	resp := openapi.SourcesResponse{Sources: make([]openapi.Source, 0, len(ids))}
	for _, id := range ids {
		resp.Sources = append(resp.Sources, openapi.Source{Id: string(id), Name: id.DisplayName()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) GetTickers(w http.ResponseWriter, r *http.Request, source string, params openapi.GetTickersParams) {
	limit := domain.DefaultTopN
	if params.Limit != nil {
		if *params.Limit < 1 || *params.Limit > domain.DefaultTopN {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", domain.DefaultTopN))
			return
		}
		limit = *params.Limit
	}

	v, err := s.svc.Latest(r.Context(), sourceID(source))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	recs := v.Result.Records
	if len(recs) > limit {
		recs = recs[:limit]
	}
	resp := openapi.TickersResponse{
		Data:      make([]openapi.Ticker, 0, len(recs)),
		Timestamp: v.Result.FetchedAt.UnixMilli(),
		Total:     v.Result.TotalConsidered,
	}
	for _, t := range recs {
		out := openapi.Ticker{
			Symbol:             t.Symbol,
			LastPrice:          t.LastPrice,
			PriceChangePercent: t.PriceChangePercent,
			QuoteVolume:        t.QuoteVolume,
		}
		if t.DisplayName != "" {
			name := t.DisplayName
			out.DisplayName = &name
		}
		resp.Data = append(resp.Data, out)
	}
	if params.Snapshots == nil || *params.Snapshots {
		snaps := make([]openapi.Snapshot, 0, len(v.Snapshots))
		for _, sn := range v.Snapshots {
			rk := make(map[string]openapi.Ranking, len(sn.Rankings))
			for sym, x := range sn.Rankings {
				rk[sym] = openapi.Ranking{Rank: x.Rank, Volume: x.Volume}
			}
			snaps = append(snaps, openapi.Snapshot{Time: sn.Label, Timestamp: sn.CapturedAt.UnixMilli(), Rankings: rk})
		}
		resp.Snapshots = &snaps
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) RefreshTickers(w http.ResponseWriter, r *http.Request, source string, params openapi.RefreshTickersParams) {
	id := sourceID(source)
	if err := s.svc.ReserveRefresh(r.Context(), id, params.XIdempotencyKey); err != nil {
		s.fail(w, r, err)
		return
	}
	ok := s.queue.Enqueue(worker.RefreshMsg{
		Source:    id,
		RequestID: logx.RequestID(r.Context()),
		TraceID:   logx.TraceID(r.Context()),
	})
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "refresh queue is full")
		return
	}
	writeJSON(w, http.StatusAccepted, openapi.RefreshAccepted{Source: string(id), Status: "queued"})
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	started := s.svc.StartedAt()
	resp := openapi.HealthResponse{
		Status:    "ok",
		Uptime:    s.now().Sub(started).Seconds(),
		StartedAt: started.UnixMilli(),
		Scheduler: s.sched.State().String(),
		Sources:   map[string]openapi.SourceHealth{},
	}
	if rss, err := processRSS(r.Context()); err == nil {
		resp.Memory = &openapi.Memory{RSS: rss}
	}
	for _, h := range s.svc.Health(r.Context()) {
		sh := openapi.SourceHealth{HasData: h.HasData, SnapshotCount: h.SnapshotCount}
		if h.HasData {
			ms := h.LastUpdate.UnixMilli()
			sh.LastUpdate = &ms
		}
		resp.Sources[string(h.Source)] = sh
	}
	writeJSON(w, http.StatusOK, resp)
}

// ready reports nil once the startup pass is done and every dependency
// check passes.
func (s *Server) ready(ctx context.Context) error {
	if !s.sched.Ready() {
		return errors.New("startup refresh in progress")
	}
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownSource):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNoDataAvailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, application.ErrConflict):
		writeError(w, http.StatusConflict, "duplicate idempotency key")
	case errors.Is(err, application.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logx.WithFields(r.Context()).Error("http.internal_error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

func sourceID(raw string) domain.SourceID {
	return domain.SourceID(strings.ToLower(strings.TrimSpace(raw)))
}

func processRSS(ctx context.Context) (uint64, error) {
	p, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, openapi.Error{Code: status, Message: msg})
}
