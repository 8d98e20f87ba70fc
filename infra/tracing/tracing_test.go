package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseOTLPEndpoint(t *testing.T) {
	testCases := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"tempo:4318", "tempo:4318"},
		{"http://tempo:4318", "tempo:4318"},
		{"https://collector", "collector:4318"},
		{"  http://otel:9999/v1/traces ", "otel:9999"},
	}

	for _, tc := range testCases {
		got, err := parseOTLPEndpoint(tc.raw)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.raw)
	}
}

func TestInitDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Nil(t, Init("vending"))
}

func TestRemoteSpanContext(t *testing.T) {
	sc, ok := remoteSpanContext("4bf92f3577b34da6a3ce929d0e0e4736")
	require.True(t, ok)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", sc.TraceID().String())
	assert.True(t, sc.IsRemote())

	_, ok = remoteSpanContext("short")
	assert.False(t, ok)
	_, ok = remoteSpanContext("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	assert.False(t, ok)
}

func TestMiddlewareRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/items/9", nil)
	req.Header.Set("X-Request-ID", "4bf92f3577b34da6a3ce929d0e0e4736")
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /items/:id", spans[0].Name())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "Error", spans[0].Status().Code.String())
}
