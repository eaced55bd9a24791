package scheduler

import (
	"container/heap"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidFireTime = errors.New("scheduler: invalid fire time")
	ErrMissingEntityID = errors.New("scheduler: entity id is required")
	ErrEngineStopped   = errors.New("scheduler: engine stopped")
)

// retryDelay is how long a due event waits before another delivery attempt when the
// consumer's buffer is full.
const retryDelay = 50 * time.Millisecond

// Payload travels with a notification and comes back untouched when it fires.
type Payload struct {
	Kind       string
	ScheduleID string
	LogID      string
	ProfileID  string
	Title      string
}

// Event is one armed notification. EntityID is the schedule or log it belongs to; at most
// one event per entity is armed at a time.
type Event struct {
	EntityID string
	Payload  Payload
	FireAt   time.Time
}

type queueItem struct {
	event Event
	// at orders the heap. It starts as event.FireAt and moves on when delivery is retried.
	at  time.Time
	gen uint64
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].at.Before(pq[j].at)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Engine is an in-process notification scheduler. Cancelled or replaced events stay in
// the heap and are skipped when they surface. A due event that finds the output buffer
// full stays armed and is offered again after retryDelay, so it is never lost.
type Engine struct {
	mu      sync.Mutex
	queue   priorityQueue
	armed   map[string]uint64
	nextGen uint64
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	retried uint64
}

func NewEngine(bufferSize int) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Engine{
		queue:  make(priorityQueue, 0),
		armed:  make(map[string]uint64),
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (e *Engine) C() <-chan Event {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	heap.Init(&e.queue)
	go e.loop()
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

// Schedule arms ev, replacing any event already armed for the same entity.
func (e *Engine) Schedule(ev Event) error {
	if strings.TrimSpace(ev.EntityID) == "" {
		return ErrMissingEntityID
	}
	if ev.FireAt.IsZero() {
		return ErrInvalidFireTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrEngineStopped
	}

	e.nextGen++
	e.armed[ev.EntityID] = e.nextGen
	heap.Push(&e.queue, queueItem{event: ev, at: ev.FireAt, gen: e.nextGen})
	e.signalWakeup()
	return nil
}

// Cancel disarms the entity's event and reports whether one was armed.
func (e *Engine) Cancel(entityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.armed[entityID]; !ok {
		return false
	}
	delete(e.armed, entityID)
	e.signalWakeup()
	return true
}

// Pending returns the armed event for entityID, if any.
func (e *Engine) Pending(entityID string) (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	gen, ok := e.armed[entityID]
	if !ok {
		return Event{}, false
	}
	for _, item := range e.queue {
		if item.gen == gen {
			return item.event, true
		}
	}
	return Event{}, false
}

// Len is the number of armed events.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.armed)
}

// Retried counts deliveries put off because the consumer was not keeping up.
func (e *Engine) Retried() uint64 {
	return atomic.LoadUint64(&e.retried)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		next, hasNext := e.peek()
		if !hasNext {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			e.deliverDue(time.Now())
		case <-e.wakeup:
			continue
		case <-e.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// peek discards stale heap entries before reporting when the earliest live event is due.
func (e *Engine) peek() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		head := e.queue[0]
		if e.isLive(head) {
			return head.at, true
		}
		heap.Pop(&e.queue)
	}
	return time.Time{}, false
}

// deliverDue hands every due live event to the consumer without blocking. An event the
// buffer cannot take keeps its armed slot and comes due again after retryDelay.
func (e *Engine) deliverDue(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var deferred []queueItem
	for len(e.queue) > 0 {
		next := e.queue[0]
		if next.at.After(now) {
			break
		}
		item := heap.Pop(&e.queue).(queueItem)
		if !e.isLive(item) {
			continue
		}
		select {
		case e.out <- item.event:
			delete(e.armed, item.event.EntityID)
		default:
			atomic.AddUint64(&e.retried, 1)
			item.at = now.Add(retryDelay)
			deferred = append(deferred, item)
		}
	}
	for _, item := range deferred {
		heap.Push(&e.queue, item)
	}
}

func (e *Engine) isLive(item queueItem) bool {
	gen, ok := e.armed[item.event.EntityID]
	return ok && gen == item.gen
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
