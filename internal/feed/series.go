package feed

import (
	"sync"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// PriceSeries is a bounded, time-ascending buffer of price observations.
// It is written by the feed goroutine and read by the decision loop, so all
// access is guarded and reads return copies.
type PriceSeries struct {
	mu      sync.RWMutex
	points  []domain.PricePoint
	maxSize int
}

// NewPriceSeries creates a series that keeps at most maxSize points,
// dropping the oldest on overflow.
func NewPriceSeries(maxSize int) *PriceSeries {
	return &PriceSeries{
		points:  make([]domain.PricePoint, 0, maxSize),
		maxSize: maxSize,
	}
}

// Append records a new observation, evicting the oldest point when full.
func (s *PriceSeries) Append(p domain.PricePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points = append(s.points, p)
	if len(s.points) > s.maxSize {
		s.points = s.points[1:]
	}
}

// Latest returns the most recent observation. ok is false when no data has
// arrived yet.
func (s *PriceSeries) Latest() (domain.PricePoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.points) == 0 {
		return domain.PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// History returns up to limit most recent prices, oldest first. A limit of
// 0 or less returns the whole buffer. The returned slice is a copy and safe
// to mutate.
func (s *PriceSeries) History(limit int) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.points)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]float64, 0, n)
	for _, p := range s.points[len(s.points)-n:] {
		out = append(out, p.Price)
	}
	return out
}

// Len returns the number of buffered observations.
func (s *PriceSeries) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// LastUpdated returns the timestamp of the most recent observation, or the
// zero time when empty.
func (s *PriceSeries) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.points) == 0 {
		return time.Time{}
	}
	return s.points[len(s.points)-1].Time
}
