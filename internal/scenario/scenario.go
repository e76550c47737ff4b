// Package scenario defines the weighted user-behavior tasks a simulated
// browser user runs against the Studio application. Weights bias selection
// frequency to approximate the shape of real traffic.
package scenario

import (
	"context"
	"math/rand"

	"github.com/contentworkshop/studioload/internal/studio"
)

// Task is one independently selectable unit of user behavior.
type Task struct {
	// Name identifies the task in metrics and reports.
	Name string
	// Weight is the task's relative selection frequency. Tasks with a
	// weight of zero or less are excluded from selection.
	Weight int
	// Run executes one iteration of the task on the given session.
	Run func(ctx context.Context, s *studio.Session) error
}

// Set is a weighted collection of tasks.
type Set struct {
	tasks []Task
	total int
}

// NewSet builds a set from the given tasks, dropping any with a
// non-positive weight.
func NewSet(tasks ...Task) *Set {
	set := &Set{}
	for _, task := range tasks {
		if task.Weight <= 0 {
			continue
		}
		set.tasks = append(set.tasks, task)
		set.total += task.Weight
	}
	return set
}

// Tasks returns the selectable tasks in registration order.
func (s *Set) Tasks() []Task {
	return s.tasks
}

// Len returns the number of selectable tasks.
func (s *Set) Len() int {
	return len(s.tasks)
}

// Pick selects a task at random, biased by weight.
func (s *Set) Pick(rng *rand.Rand) Task {
	n := rng.Intn(s.total)
	for _, task := range s.tasks {
		n -= task.Weight
		if n < 0 {
			return task
		}
	}
	// Unreachable: the cumulative weights cover [0, total).
	return s.tasks[len(s.tasks)-1]
}
