package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"s3-file-drop/internal/audit"
	"s3-file-drop/internal/storage"
)

// fakeStore is an in-memory storage.Store with per-call failure injection.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	folders []string // keys ending in "/" that List reports

	putErr  map[string]error
	listErr error
	delErr  error
	signErr error
	pingErr error

	puts    atomic.Int32
	lastTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, putErr: map[string]error{}}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte) error {
	f.puts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.putErr[key]; err != nil {
		return err
	}
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeStore) List(context.Context) ([]storage.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]storage.Object, 0, len(f.objects)+len(f.folders))
	for _, k := range f.folders {
		out = append(out, storage.Object{Key: k})
	}
	for k, v := range f.objects {
		out = append(out, storage.Object{
			Key:          k,
			Size:         int64(len(v)),
			LastModified: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			ETag:         fmt.Sprintf("%q", k),
			StorageClass: "STANDARD",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delErr != nil {
		return f.delErr
	}
	if _, ok := f.objects[key]; !ok {
		return errors.New("The specified key does not exist.")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTTL = ttl
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://files.example/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fakeActivity records events in memory.
type fakeActivity struct {
	mu        sync.Mutex
	events    []audit.Event
	recordErr error
	recentErr error
	pingErr   error
	lastLimit int
	stall     bool // Record blocks until its context ends
}

func (a *fakeActivity) Record(ctx context.Context, ev audit.Event) error {
	if a.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.recordErr != nil {
		return a.recordErr
	}
	a.events = append(a.events, ev)
	return nil
}

func (a *fakeActivity) Recent(_ context.Context, limit int) ([]audit.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastLimit = limit
	if a.recentErr != nil {
		return nil, a.recentErr
	}
	out := make([]audit.Event, 0, len(a.events))
	for i := len(a.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.events[i])
	}
	return out, nil
}

func (a *fakeActivity) Ping(context.Context) error {
	return a.pingErr
}

func (a *fakeActivity) snapshot() []audit.Event {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Event(nil), a.events...)
}
