package payrollclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() payroll.Payload {
	start := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	return payroll.Payload{
		Window:      payroll.Window{Start: start, End: start.AddDate(0, 0, 1)},
		GeneratedAt: start.Add(30 * time.Hour),
		Attendance:  []payroll.AttendanceProjection{},
		Exceptions:  []payroll.ExceptionProjection{},
	}
}

func TestExport_PostsPayload(t *testing.T) {
	var gotAuth string
	var got payroll.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"batch":"b-1"}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL, AuthToken: "tok"})
	resp, err := c.Export(context.Background(), samplePayload())
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"batch":"b-1"}`, string(resp.Body))
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.True(t, got.Window.Start.Equal(samplePayload().Window.Start))
}

func TestExport_PassesErrorStatusThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL})
	resp, err := c.Export(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream down", string(resp.Body))
}

func TestExport_BreakerOpensAfterServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL})
	for i := 0; i < 3; i++ {
		_, err := c.Export(context.Background(), samplePayload())
		require.NoError(t, err)
	}

	_, err := c.Export(context.Background(), samplePayload())
	assert.ErrorIs(t, err, payroll.ErrExporterUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestExport_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(Config{URL: url, Timeout: time.Second})
	_, err := c.Export(context.Background(), samplePayload())
	assert.ErrorContains(t, err, "failed to call payroll endpoint")
}
