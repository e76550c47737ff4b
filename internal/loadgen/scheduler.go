package loadgen

import (
	"context"
	"sync"
	"time"
)

// Scheduler spawns and supervises the user pool for the configured
// duration.
type Scheduler struct {
	// Users is the number of simulated users to run concurrently.
	Users int
	// Duration bounds the run; zero means run until ctx is cancelled.
	Duration time.Duration
	// SpawnInterval staggers user start so the target is not hit with a
	// thundering herd of logins. Zero starts everyone at once.
	SpawnInterval time.Duration
}

// Run starts the users built by newUser and blocks until the duration
// elapses or ctx is cancelled, then waits for every user loop to return.
func (s *Scheduler) Run(ctx context.Context, newUser func(id int) *User) {
	if s.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Duration)
		defer cancel()
	}

	var wg sync.WaitGroup
	for i := 0; i < s.Users; i++ {
		if i > 0 && s.SpawnInterval > 0 {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case <-time.After(s.SpawnInterval):
			}
		}

		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			newUser(id).Run(ctx)
		}(i + 1)
	}

	wg.Wait()
}
