package bot

import (
	"sync"

	"github.com/rs/zerolog"
)

// Spawner runs detached work for requests that were already acknowledged.
// Failures have no caller left to report to, so they land in the log instead.
type Spawner struct {
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewSpawner creates a spawner logging under the given logger.
func NewSpawner(logger zerolog.Logger) *Spawner {
	return &Spawner{logger: logger.With().Str("component", "spawner").Logger()}
}

// Go runs fn on its own goroutine. A panic in fn is recovered and logged so a
// single bad task cannot take the process down.
func (s *Spawner) Go(name string, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Str("task", name).Interface("panic", r).Msg("detached task panicked")
			}
		}()
		fn()
	}()
}

// Wait blocks until all spawned tasks have finished.
func (s *Spawner) Wait() {
	s.wg.Wait()
}
