package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestEngineRecordAndSnapshot(t *testing.T) {
	engine := NewEngine()

	engine.Record("channel_list", 100*time.Millisecond, true)
	engine.Record("channel_list", 300*time.Millisecond, true)
	engine.Record("channel_edit", 2*time.Second, false)

	s := engine.Snapshot()

	if s.Total != 3 {
		t.Errorf("Expected 3 total iterations, got %d", s.Total)
	}
	if s.Failed != 1 {
		t.Errorf("Expected 1 failed iteration, got %d", s.Failed)
	}
	if len(s.Tasks) != 2 {
		t.Fatalf("Expected 2 task entries, got %d", len(s.Tasks))
	}

	// Tasks are sorted by name.
	if s.Tasks[0].Name != "channel_edit" || s.Tasks[1].Name != "channel_list" {
		t.Errorf("Unexpected task order: %s, %s", s.Tasks[0].Name, s.Tasks[1].Name)
	}
	if s.Tasks[0].Failed != 1 {
		t.Errorf("Expected channel_edit to record 1 failure, got %d", s.Tasks[0].Failed)
	}
	if s.Tasks[1].Count != 2 {
		t.Errorf("Expected channel_list count 2, got %d", s.Tasks[1].Count)
	}

	// HDR histograms are approximate to 3 significant figures.
	p50 := s.Tasks[1].P50
	if p50 < 90*time.Millisecond || p50 > 110*time.Millisecond {
		t.Errorf("Expected channel_list p50 near 100ms, got %s", p50)
	}
	if max := s.Tasks[0].Max; max < 1900*time.Millisecond {
		t.Errorf("Expected channel_edit max near 2s, got %s", max)
	}
}

func TestEngineActiveUsers(t *testing.T) {
	engine := NewEngine()
	engine.UserStarted()
	engine.UserStarted()
	engine.UserStopped()

	if got := engine.ActiveUsers(); got != 1 {
		t.Errorf("Expected 1 active user, got %d", got)
	}
}

func TestEngineConcurrentRecord(t *testing.T) {
	engine := NewEngine()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				engine.Record("login_page", time.Millisecond, j%10 != 0)
			}
		}()
	}
	wg.Wait()

	s := engine.Snapshot()
	if s.Total != 2000 {
		t.Errorf("Expected 2000 iterations, got %d", s.Total)
	}
	if s.Failed != 200 {
		t.Errorf("Expected 200 failures, got %d", s.Failed)
	}
}

func TestEngineSubMicrosecondDuration(t *testing.T) {
	engine := NewEngine()
	// Durations below the histogram floor must clamp, not error.
	engine.Record("login_page", 100*time.Nanosecond, true)

	s := engine.Snapshot()
	if s.Total != 1 {
		t.Errorf("Expected 1 iteration, got %d", s.Total)
	}
}
