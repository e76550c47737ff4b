package loadgen

import (
	"context"
	"math/rand"
	"time"

	"github.com/contentworkshop/studioload/internal/loadgen/metrics"
	"github.com/contentworkshop/studioload/internal/scenario"
	"github.com/contentworkshop/studioload/internal/studio"
)

// loginTaskName is the metric name for the session login performed before
// the first task iteration.
const loginTaskName = "session_login"

// User is one simulated browser user: an authenticated session plus a
// sequential task loop. Users never share sessions.
type User struct {
	ID      int
	session *studio.Session
	tasks   *scenario.Set
	metrics *metrics.Engine
	rng     *rand.Rand

	minWait time.Duration
	maxWait time.Duration

	loggedIn bool
}

// NewUser creates a simulated user. minWait/maxWait bound the think time
// between task iterations.
func NewUser(id int, session *studio.Session, tasks *scenario.Set, engine *metrics.Engine, minWait, maxWait time.Duration) *User {
	return &User{
		ID:      id,
		session: session,
		tasks:   tasks,
		metrics: engine,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano() + int64(id))),
		minWait: minWait,
		maxWait: maxWait,
	}
}

// Run executes the user's task loop until ctx is cancelled. A task that has
// started runs to completion; cancellation is observed between iterations
// and inside blocking waits.
func (u *User) Run(ctx context.Context) {
	u.metrics.UserStarted()
	defer u.metrics.UserStopped()

	for {
		if ctx.Err() != nil {
			return
		}

		if !u.loggedIn {
			if !u.login(ctx) {
				// Back off before retrying so a down server is not hammered
				// with login attempts.
				u.think(ctx)
				continue
			}
		}

		task := u.tasks.Pick(u.rng)
		start := time.Now()
		err := task.Run(ctx, u.session)
		if ctx.Err() != nil {
			return
		}
		u.metrics.Record(task.Name, time.Since(start), err == nil)

		u.think(ctx)
	}
}

// login authenticates the session and records the attempt. Returns whether
// the user is now logged in.
func (u *User) login(ctx context.Context) bool {
	start := time.Now()
	err := u.session.Login(ctx)
	if ctx.Err() != nil {
		return false
	}
	u.metrics.Record(loginTaskName, time.Since(start), err == nil)
	u.loggedIn = err == nil
	return u.loggedIn
}

// think sleeps for a uniformly random duration in [minWait, maxWait],
// returning early on cancellation.
func (u *User) think(ctx context.Context) {
	wait := u.minWait
	if span := u.maxWait - u.minWait; span > 0 {
		wait += time.Duration(u.rng.Int63n(int64(span)))
	}
	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
