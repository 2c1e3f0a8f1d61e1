package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/eventlog/application"
	"github.com/rnrl/tradecore/internal/eventlog/domain"
	eventloghttp "github.com/rnrl/tradecore/internal/eventlog/interfaces/http"
	"github.com/rnrl/tradecore/internal/platform/authctx"
)

type fakeReader struct {
	events []*domain.Event
	err    error
}

func (r *fakeReader) Read(ctx context.Context, aggregateType, aggregateID string, since time.Time) ([]*domain.Event, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.events, nil
}

func newTestRouter(reader *fakeReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	queries := application.NewQueryService(reader)
	h := eventloghttp.NewHandler(queries)
	api := e.Group("/api/v1", func(c *gin.Context) {
		principal := &authctx.Principal{PartnerID: "SUPERVISOR-1", Capabilities: map[authctx.Capability]bool{authctx.CapSupervise: true}}
		c.Set("principal", principal)
		c.Request = c.Request.WithContext(authctx.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	})
	h.RegisterRoutes(api)
	return e
}

func TestReadEvents_RequiresAggregateTypeAndId(t *testing.T) {
	router := newTestRouter(&fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query params, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReadEvents_RejectsMalformedSince(t *testing.T) {
	router := newTestRouter(&fakeReader{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?aggregateType=trade&aggregateId=TR-1&since=not-a-time", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed since, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestReadEvents_ReturnsEventsOnSuccess(t *testing.T) {
	reader := &fakeReader{events: []*domain.Event{
		{EventID: "EVT-1", EventType: "trade.created.v1", AggregateType: "trade", AggregateID: "TR-1"},
	}}
	router := newTestRouter(reader)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?aggregateType=trade&aggregateId=TR-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
