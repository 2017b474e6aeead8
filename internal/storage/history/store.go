// Package history persists balance snapshots per scope and serves the
// range queries behind the balance charts. Observations are journaled in
// a WAL; the queryable per-scope series is an in-memory view produced by
// running every observation through the coalescing rules, so a restart
// replays the journal and lands on the exact same series.
package history

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/TimofiiShkabrov/AirCapital/internal/entity"
)

const (
	defaultHistoryDir = "./wal/history"
	segmentThreshold  = 1000
	maxSegments       = 100
	snapshotKeyPrefix = "balance_snapshot_"

	// defaultZeroTolerance is how long a zero reading after a positive one
	// is treated as a transient all-empty fetch and dropped. A sustained
	// zero balance still lands once the window has passed.
	defaultZeroTolerance = 10 * time.Minute

	// defaultCoalesceWindow is how close two observations must be for the
	// newer one to overwrite the older instead of appending.
	defaultCoalesceWindow = 30 * time.Minute
)

// defaultEpsilon separates "effectively zero" snapshots from real ones in
// query results.
var defaultEpsilon = decimal.New(1, -6)

// Options configures a Store. Zero values fall back to the defaults
// above.
type Options struct {
	Dir            string
	ZeroTolerance  time.Duration
	CoalesceWindow time.Duration
	Epsilon        decimal.Decimal
	Clock          func() time.Time
}

// Store owns the snapshot journal and its materialized per-scope series.
// All access is serialized through the store mutex; it is the single
// owner of the on-disk state.
type Store struct {
	wal            *gowal.Wal
	mu             sync.Mutex
	series         map[entity.BalanceScope][]entity.BalanceSnapshot
	zeroTolerance  time.Duration
	coalesceWindow time.Duration
	epsilon        decimal.Decimal
	clock          func() time.Time
}

// NewStore opens the journal under opts.Dir and rebuilds the in-memory
// series by replaying it.
func NewStore(opts Options) (*Store, error) {
	dir := opts.Dir
	if dir == "" {
		dir = defaultHistoryDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "snapshot_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init balance history WAL")
	}

	s := &Store{
		wal:            wal,
		series:         make(map[entity.BalanceScope][]entity.BalanceSnapshot),
		zeroTolerance:  opts.ZeroTolerance,
		coalesceWindow: opts.CoalesceWindow,
		epsilon:        opts.Epsilon,
		clock:          opts.Clock,
	}
	if s.zeroTolerance == 0 {
		s.zeroTolerance = defaultZeroTolerance
	}
	if s.coalesceWindow == 0 {
		s.coalesceWindow = defaultCoalesceWindow
	}
	if s.epsilon.IsZero() {
		s.epsilon = defaultEpsilon
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	if err := s.replay(); err != nil {
		_ = wal.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) replay() error {
	for m := range s.wal.Iterator() {
		var snap entity.BalanceSnapshot
		if err := json.Unmarshal(m.Value, &snap); err != nil {
			return errors.Wrap(err, "decode journaled snapshot")
		}
		s.apply(snap)
	}
	return nil
}

// Append records one observed balance for the scope, subject to the
// coalescing rules. Accepted observations are journaled so the series
// survives restarts.
func (s *Store) Append(scope entity.BalanceScope, value decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := entity.NewBalanceSnapshot(scope, s.clock(), value)
	if !s.apply(snap) {
		return nil
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode balance snapshot")
	}

	key := snapshotKeyPrefix + scope.String()
	if err := s.wal.Write(s.wal.CurrentIndex()+1, key, payload); err != nil {
		return errors.Wrap(err, "journal balance snapshot")
	}

	return nil
}

// apply runs one observation through the coalescing rules and mutates
// the series. It reports whether the observation was accepted. Callers
// hold the store mutex (or own the store exclusively during replay).
func (s *Store) apply(snap entity.BalanceSnapshot) bool {
	points := s.series[snap.Scope]
	if len(points) == 0 {
		// never seed a scope with a meaningless zero
		if snap.Balance.IsZero() {
			return false
		}
		s.series[snap.Scope] = append(points, snap)
		return true
	}

	last := points[len(points)-1]
	elapsed := snap.Timestamp.Sub(last.Timestamp)

	// a zero right after a positive reading is a transient empty fetch
	if snap.Balance.IsZero() && last.Balance.IsPositive() && elapsed < s.zeroTolerance {
		return false
	}

	if elapsed < s.coalesceWindow {
		points[len(points)-1] = snap
		return true
	}

	s.series[snap.Scope] = append(points, snap)
	return true
}

// Snapshots returns the scope's series ascending by timestamp.
func (s *Store) Snapshots(scope entity.BalanceScope) []entity.BalanceSnapshot {
	return s.SnapshotsSince(scope, time.Time{})
}

// SnapshotsSince returns the scope's series restricted to timestamps at
// or after from, ascending. When any point in the result is above the
// epsilon, effectively-zero points are dropped; an all-zero series is
// returned unchanged so a scope with no real readings still shows
// something.
func (s *Store) SnapshotsSince(scope entity.BalanceScope, from time.Time) []entity.BalanceSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var scoped []entity.BalanceSnapshot
	for _, snap := range s.series[scope] {
		if !from.IsZero() && snap.Timestamp.Before(from) {
			continue
		}
		scoped = append(scoped, snap)
	}

	hasNonZero := false
	for _, snap := range scoped {
		if snap.Balance.GreaterThan(s.epsilon) {
			hasNonZero = true
			break
		}
	}
	if !hasNonZero {
		return scoped
	}

	filtered := make([]entity.BalanceSnapshot, 0, len(scoped))
	for _, snap := range scoped {
		if snap.Balance.GreaterThan(s.epsilon) {
			filtered = append(filtered, snap)
		}
	}
	return filtered
}

// Close closes the underlying journal.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
