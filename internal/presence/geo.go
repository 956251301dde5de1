package presence

import (
	"context"
	"math/rand"
	"time"

	"github.com/nowly-app/nowly/internal/domain"
)

// Source is the geolocation collaborator: a stream of fixes that ends when
// the device stops producing them. Failures inside a source are its own
// business; the engine only ever sees fixes.
type Source interface {
	Watch(ctx context.Context) <-chan domain.Fix
}

// SimSource produces a random walk around a starting coordinate. It stands
// in for device geolocation in the client binary and in tests.
type SimSource struct {
	Start    domain.Fix
	StepDeg  float64
	Interval time.Duration
}

func NewSimSource(start domain.Fix) *SimSource {
	return &SimSource{
		Start:    start,
		StepDeg:  0.0002,
		Interval: time.Second,
	}
}

func (s *SimSource) Watch(ctx context.Context) <-chan domain.Fix {
	out := make(chan domain.Fix, 1)

	go func() {
		defer close(out)

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		cur := s.Start
		out <- cur

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cur.Lat += (rng.Float64() - 0.5) * 2 * s.StepDeg
				cur.Lng += (rng.Float64() - 0.5) * 2 * s.StepDeg
				select {
				case out <- cur:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
