// Package list maintains a locally sorted, incrementally extended view of
// the server-paginated pass collection.
package list

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/domain"
)

// Rendered geometry of the list: a further page is requested once fewer
// than thresholdRows of content remain below the viewport.
const (
	RowHeight     = 72
	thresholdRows = 3
)

// DefaultQuiescence is the scroll-signal debounce window.
const DefaultQuiescence = 400 * time.Millisecond

// FetchFunc loads one page. A nil key requests the first page.
type FetchFunc func(ctx context.Context, key *domain.PageKey) (*domain.PassPage, error)

// Viewport is one scroll observation of the rendered list.
type Viewport struct {
	ScrollTop      float64
	ViewportHeight float64
	ContentHeight  float64
}

func (v Viewport) nearBottom() bool {
	remaining := v.ContentHeight - (v.ScrollTop + v.ViewportHeight)
	return remaining < RowHeight*thresholdRows
}

// Synchronizer merges server pages into one in-memory list, re-sorting
// globally on every arrival and on every sort change. Scroll signals feed a
// timer-gated consumer that coalesces rapid events into at most one fetch
// decision per quiescence window; cursor gating and a single-flight guard
// keep page fetches serialized.
type Synchronizer struct {
	fetch  FetchFunc
	logger *zap.Logger
	quiet  time.Duration

	mu       sync.Mutex
	records  []domain.Pass
	seen     map[string]struct{}
	nextKey  *domain.PageKey
	column   Column
	desc     bool
	fetching bool
	closed   bool

	signals chan Viewport
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option tweaks synchronizer construction.
type Option func(*Synchronizer)

// WithQuiescence overrides the debounce window.
func WithQuiescence(d time.Duration) Option {
	return func(s *Synchronizer) { s.quiet = d }
}

// NewSynchronizer builds a synchronizer and starts its scroll consumer. The
// list sorts by end time, newest first, until the user picks a column.
func NewSynchronizer(fetch FetchFunc, logger *zap.Logger, opts ...Option) *Synchronizer {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Synchronizer{
		fetch:   fetch,
		logger:  logger,
		quiet:   DefaultQuiescence,
		seen:    map[string]struct{}{},
		column:  ColumnEndAt,
		desc:    true,
		signals: make(chan Viewport, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// LoadInitial fetches page one with no cursor.
func (s *Synchronizer) LoadInitial(ctx context.Context) error {
	page, err := s.fetch(ctx, nil)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.mergeLocked(page)
	return nil
}

// Scroll reports a scroll observation. It never blocks; when the signal
// buffer is full the observation is dropped, a later one supersedes it
// anyway.
func (s *Synchronizer) Scroll(v Viewport) {
	select {
	case s.signals <- v:
	default:
	}
}

// SortBy activates a sort column: reselecting the active column toggles
// direction, a new column starts ascending. The entire list re-sorts.
func (s *Synchronizer) SortBy(col Column) {
	if !KnownColumn(col) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if col == s.column {
		s.desc = !s.desc
	} else {
		s.column = col
		s.desc = false
	}
	Sort(s.records, s.column, s.desc)
}

// Records returns a snapshot of the current view.
func (s *Synchronizer) Records() []domain.Pass {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Pass, len(s.records))
	copy(out, s.records)
	return out
}

// ActiveSort returns the current column and direction.
func (s *Synchronizer) ActiveSort() (Column, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.column, s.desc
}

// Exhausted reports whether the collection has no further pages.
func (s *Synchronizer) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.nextKey.Valid()
}

// Close stops the scroll consumer. Page fetches completing afterwards are
// dropped.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
}

func (s *Synchronizer) run() {
	defer s.wg.Done()

	timer := time.NewTimer(s.quiet)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var latest Viewport
	var pending bool

	for {
		select {
		case v := <-s.signals:
			latest = v
			pending = true
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.quiet)
		case <-timer.C:
			if pending {
				pending = false
				s.maybeFetch(latest)
			}
		case <-s.ctx.Done():
			return
		}
	}
}

// maybeFetch applies the fetch decision for one quiescence window: still
// more pages, near the bottom, and no fetch already in flight.
func (s *Synchronizer) maybeFetch(v Viewport) {
	s.mu.Lock()
	if s.closed || s.fetching || !s.nextKey.Valid() || !v.nearBottom() {
		s.mu.Unlock()
		return
	}
	key := *s.nextKey
	s.fetching = true
	s.mu.Unlock()

	page, err := s.fetch(s.ctx, &key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetching = false
	if s.closed {
		return
	}
	if err != nil {
		// No automatic retry; the user keeps scrolling to try again.
		s.logger.Warn("page fetch failed", zap.Error(err))
		return
	}
	s.mergeLocked(page)
}

// mergeLocked concatenates a page onto the list, dropping records already
// present, then re-applies the active sort to the whole combined list. The
// cursor is replaced even when the page carried no new records.
func (s *Synchronizer) mergeLocked(page *domain.PassPage) {
	for _, pass := range page.Passes {
		if _, ok := s.seen[pass.ID]; ok {
			continue
		}
		s.seen[pass.ID] = struct{}{}
		s.records = append(s.records, pass)
	}
	s.nextKey = page.NextKey
	Sort(s.records, s.column, s.desc)
}
