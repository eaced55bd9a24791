package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// Many goroutines re-arming the same schedules must leave one live event per schedule.
func TestEngineStressConcurrentRearm(t *testing.T) {
	engine := NewEngine(256)
	engine.Start()
	defer engine.Stop()

	const workers = 8
	const schedules = 50
	const rounds = 5

	base := time.Now().Add(300 * time.Millisecond)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				for i := 0; i < schedules; i++ {
					id := fmt.Sprintf("sched-%d", i)
					ev := Event{
						EntityID: id,
						Payload:  Payload{Kind: "medicine", ScheduleID: id, Title: fmt.Sprintf("dose %d/%d", w, r)},
						FireAt:   base.Add(time.Duration((w+r+i)%20) * time.Millisecond),
					}
					if err := engine.Schedule(ev); err != nil {
						t.Errorf("schedule failed: %v", err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := engine.Len(); got != schedules {
		t.Fatalf("armed count: got=%d want=%d", got, schedules)
	}

	seen := make(map[string]int, schedules)
	deadline := time.After(5 * time.Second)
	for len(seen) < schedules {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for fires: got=%d want=%d retried=%d", len(seen), schedules, engine.Retried())
		case ev := <-engine.C():
			seen[ev.EntityID]++
		}
	}

	select {
	case ev := <-engine.C():
		t.Fatalf("replaced event fired for %s", ev.EntityID)
	case <-time.After(100 * time.Millisecond):
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("%s fired %d times", id, n)
		}
	}
	if engine.Len() != 0 {
		t.Fatalf("expected nothing armed after firing, got=%d", engine.Len())
	}
	if engine.Retried() != 0 {
		t.Fatalf("expected no retries with an active consumer, got=%d", engine.Retried())
	}
}
