package observe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// newInstrumentedHandler wires Middleware around handler with isolated
// metric and trace providers, returning hooks to inspect both.
func newInstrumentedHandler(t *testing.T, handler http.HandlerFunc) (http.Handler, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return Middleware(m)(handler), reader, exp
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouteLabel(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/api/state", "/api/state"},
		{"/api/session/connect", "/api/session/connect"},
		{"/api/saves", "/api/saves"},
		{"/api/saves/8c2f41d0", "/api/saves/{id}"},
		{"/api/saves/8c2f41d0/load", "/api/saves/{id}/load"},
		{"/metrics", "/metrics"},
		{"/audio", "/audio"},
	}
	for _, tc := range cases {
		if got := routeLabel(tc.path); got != tc.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestMiddleware_RecordsDurationUnderRoute(t *testing.T) {
	h, reader, _ := newInstrumentedHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve(h, "GET", "/api/saves/8c2f41d0/load")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	met := findMetric(rm, "taleforge.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatalf("histogram has no data points")
	}

	dp := hist.DataPoints[0]
	if dp.Count != 1 {
		t.Errorf("sample count = %d, want 1", dp.Count)
	}
	if v, ok := dp.Attributes.Value(attribute.Key("route")); !ok || v.AsString() != "/api/saves/{id}/load" {
		t.Errorf("route attribute = %v, want /api/saves/{id}/load", v.AsString())
	}
	if v, ok := dp.Attributes.Value(attribute.Key("method")); !ok || v.AsString() != "GET" {
		t.Errorf("method attribute = %v, want GET", v.AsString())
	}
}

func TestMiddleware_SpanNamedAfterRoute(t *testing.T) {
	h, _, exp := newInstrumentedHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := serve(h, "POST", "/api/saves/missing/load")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("response status = %d, want 404", rec.Code)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans recorded = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name != "POST /api/saves/{id}/load" {
		t.Errorf("span name = %q, want %q", span.Name, "POST /api/saves/{id}/load")
	}

	var gotStatus int64
	var gotRoute string
	for _, a := range span.Attributes {
		switch string(a.Key) {
		case "http.response.status_code":
			gotStatus = a.Value.AsInt64()
		case "taleforge.route":
			gotRoute = a.Value.AsString()
		}
	}
	if gotStatus != 404 {
		t.Errorf("span status code attribute = %d, want 404", gotStatus)
	}
	if gotRoute != "/api/saves/{id}/load" {
		t.Errorf("span route attribute = %q", gotRoute)
	}
}

func TestMiddleware_SetsCorrelationID(t *testing.T) {
	var inHandler string
	h, _, _ := newInstrumentedHandler(t, func(w http.ResponseWriter, r *http.Request) {
		inHandler = CorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := serve(h, "GET", "/api/session")

	if len(inHandler) != 32 {
		t.Errorf("correlation ID in context = %q, want 32 hex chars", inHandler)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != inHandler {
		t.Errorf("X-Correlation-ID = %q, want %q", got, inHandler)
	}
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	var inHandler string
	h, _, _ := newInstrumentedHandler(t, func(w http.ResponseWriter, r *http.Request) {
		inHandler = CorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/state", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if inHandler != traceID {
		t.Errorf("correlation ID = %q, want incoming trace id %q", inHandler, traceID)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != traceID {
		t.Errorf("X-Correlation-ID = %q, want %q", got, traceID)
	}
}
