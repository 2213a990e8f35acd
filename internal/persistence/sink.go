package persistence

import (
	"context"
	"sync"
)

const (
	TargetLocal  = "local"
	TargetRemote = "remote"
)

// Sink is one save destination with its own cadence and failure isolation.
type Sink interface {
	Name() string
	// Enabled reports whether a write can be attempted right now.
	Enabled() bool
	Write(ctx context.Context, data []byte) error
}

type LocalSink struct {
	store Store
	key   string
}

func NewLocalSink(store Store, key string) *LocalSink {
	return &LocalSink{store: store, key: key}
}

func (s *LocalSink) Name() string  { return TargetLocal }
func (s *LocalSink) Enabled() bool { return true }

func (s *LocalSink) Write(ctx context.Context, data []byte) error {
	return s.store.Put(ctx, s.key, data)
}

func (s *LocalSink) Read(ctx context.Context) ([]byte, error) {
	return s.store.Get(ctx, s.key)
}

// RemoteSink uploads for the signed-in user. It stays disabled until a user
// is set.
type RemoteSink struct {
	client *RemoteClient

	mu     sync.RWMutex
	userID string
}

func NewRemoteSink(client *RemoteClient, userID string) *RemoteSink {
	return &RemoteSink{client: client, userID: userID}
}

func (s *RemoteSink) Name() string { return TargetRemote }

func (s *RemoteSink) Enabled() bool {
	return s.UserID() != ""
}

func (s *RemoteSink) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *RemoteSink) SetUser(id string) {
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
}

func (s *RemoteSink) Write(ctx context.Context, data []byte) error {
	return s.client.Save(ctx, s.UserID(), data)
}
