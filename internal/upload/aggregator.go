// Package upload fans a batch of named payloads out to an object store and
// folds the per-file results into one partial-success summary.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"s3-file-drop/internal/storage"
)

// ErrNoItems is returned by Aggregate for an empty batch. No store call is made.
var ErrNoItems = errors.New("upload: no items")

// Putter stores one object. storage.Store satisfies it.
type Putter interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Item is one file from the request, keyed by its name.
type Item struct {
	Name string
	Data []byte
}

// Outcome is the settled result of one Item's put.
type Outcome struct {
	Name  string
	Bytes int // payload size of the Item
	Err   error
}

// Succeeded reports whether the put went through.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Summary is the reduction of a batch's outcomes.
// Succeeded + len(Errors) always equals the batch size.
type Summary struct {
	Succeeded int
	Errors    []string // nil when every put succeeded
}

// Message is the human-readable line returned to the browser.
func (s Summary) Message() string {
	return fmt.Sprintf("Uploaded %d file(s) successfully.", s.Succeeded)
}

// Aggregate puts every item concurrently and waits for all of them to settle.
// A failed put never cancels the others, and cancellation of ctx does not
// abort puts that were already issued.
func Aggregate(ctx context.Context, p Putter, items []Item) (Summary, []Outcome, error) {
	if len(items) == 0 {
		return Summary{}, nil, ErrNoItems
	}

	ctx = context.WithoutCancel(ctx)

	var (
		g        errgroup.Group
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(items))
	)
	for _, it := range items {
		g.Go(func() error {
			err := p.Put(ctx, it.Name, it.Data)

			mu.Lock()
			outcomes = append(outcomes, Outcome{Name: it.Name, Bytes: len(it.Data), Err: err})
			mu.Unlock()
			return nil
		})
	}
	// workers always return nil; put failures travel in outcomes
	_ = g.Wait()

	return Reduce(outcomes), outcomes, nil
}

// Reduce counts successes and collects one message per failure in the order
// the outcomes are given.
func Reduce(outcomes []Outcome) Summary {
	var s Summary
	for _, o := range outcomes {
		if o.Succeeded() {
			s.Succeeded++
			continue
		}
		s.Errors = append(s.Errors, o.Name+": "+storage.Message(o.Err))
	}
	return s
}
