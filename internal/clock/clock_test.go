package clock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRealClockNow(t *testing.T) {
	clk := RealClock{}
	if clk.Now().IsZero() {
		t.Fatalf("expected non-zero time")
	}
}

func TestFakeClockAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)

	if !clk.Now().Equal(start) {
		t.Fatalf("expected start time")
	}

	clk.Advance(1500 * time.Millisecond)
	want := start.Add(1500 * time.Millisecond)
	if !clk.Now().Equal(want) {
		t.Fatalf("expected %v got %v", want, clk.Now())
	}
}

func TestOffsetClockAppliesOffset(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := NewOffsetClock(NewFakeClock(start))

	assert.True(t, clk.Now().Equal(start))
	assert.False(t, clk.Synced())

	clk.SetOffset(90*time.Second, true)
	assert.True(t, clk.Now().Equal(start.Add(90*time.Second)))
	assert.Equal(t, 90*time.Second, clk.Offset())
	assert.True(t, clk.Synced())
}

func TestSyncUsesServerInstant(t *testing.T) {
	local := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	server := local.Add(42 * time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"datetime":"` + server.Format(time.RFC3339Nano) + `"}`))
	}))
	defer srv.Close()

	clk := NewOffsetClock(NewFakeClock(local))
	ok := clk.Sync(context.Background(), &HTTPSource{Client: srv.Client(), URL: srv.URL}, time.Second, zap.NewNop())

	require.True(t, ok)
	assert.Equal(t, 42*time.Second, clk.Offset())
	assert.True(t, clk.Now().Equal(server))
}

func TestSyncFallsBackToZeroOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	clk := NewOffsetClock(NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	clk.SetOffset(time.Hour, true)

	ok := clk.Sync(context.Background(), &HTTPSource{Client: srv.Client(), URL: srv.URL}, time.Second, zap.NewNop())

	assert.False(t, ok)
	assert.Equal(t, time.Duration(0), clk.Offset())
	assert.False(t, clk.Synced())
}

func TestSyncFallsBackToZeroOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	clk := NewOffsetClock(NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	ok := clk.Sync(context.Background(), &HTTPSource{Client: srv.Client(), URL: srv.URL}, 50*time.Millisecond, zap.NewNop())

	assert.False(t, ok)
	assert.Equal(t, time.Duration(0), clk.Offset())
}

func TestTimeDocumentFallsBackToUnixtime(t *testing.T) {
	doc := timeDocument{Unixtime: 1735689600}
	got, err := doc.instant()
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err = timeDocument{}.instant()
	assert.Error(t, err)
}
