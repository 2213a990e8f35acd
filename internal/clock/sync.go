package clock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const DefaultSyncTimeout = 5 * time.Second

// Source returns the current UTC instant according to some authority.
type Source interface {
	FetchUTC(ctx context.Context) (time.Time, error)
}

// HTTPSource reads a worldtimeapi-style JSON document.
type HTTPSource struct {
	Client *http.Client
	URL    string
}

type timeDocument struct {
	Datetime    string `json:"datetime"`
	UTCDatetime string `json:"utc_datetime"`
	Unixtime    int64  `json:"unixtime"`
}

func (s *HTTPSource) FetchUTC(ctx context.Context) (time.Time, error) {
	if s.URL == "" {
		return time.Time{}, errors.New("time source url is empty")
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return time.Time{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("time source returned %d", resp.StatusCode)
	}

	var doc timeDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return time.Time{}, fmt.Errorf("decode time document: %w", err)
	}
	return doc.instant()
}

func (d timeDocument) instant() (time.Time, error) {
	for _, raw := range []string{d.UTCDatetime, d.Datetime} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.UTC(), nil
		}
	}
	if d.Unixtime > 0 {
		return time.Unix(d.Unixtime, 0).UTC(), nil
	}
	return time.Time{}, errors.New("time document has no usable instant")
}

// Sync resolves the server offset once. Any failure or timeout leaves a zero
// offset in place and reports false.
func (c *OffsetClock) Sync(ctx context.Context, src Source, timeout time.Duration, log *zap.Logger) bool {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}
	if src == nil {
		c.SetOffset(0, false)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	server, err := src.FetchUTC(ctx)
	if err != nil {
		log.Warn("time sync failed, using local clock", zap.Error(err))
		c.SetOffset(0, false)
		return false
	}

	offset := server.Sub(c.base.Now())
	c.SetOffset(offset, true)
	log.Info("time synced", zap.Duration("offset", offset))
	return true
}
