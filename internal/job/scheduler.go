package job

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Task is one periodically refreshed concern, keyed for in-flight tracking.
type Task struct {
	Key      string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives timer-based polling with one in-flight run per task key.
// A tick that fires while the previous run for the same key is still in
// flight is coalesced (skipped) instead of stacking a duplicate request.
type Scheduler struct {
	tracer trace.Tracer
	tasks  []Task

	mu       sync.Mutex
	inflight map[string]bool
}

func NewScheduler(tracer trace.Tracer, tasks ...Task) *Scheduler {
	return &Scheduler{
		tracer:   tracer,
		tasks:    tasks,
		inflight: make(map[string]bool),
	}
}

// Start launches one polling goroutine per task and blocks until ctx is
// cancelled. Each task runs immediately, then on its fixed interval.
func (s *Scheduler) Start(ctx context.Context) {
	log.Println("Poll scheduler starting...")

	var wg sync.WaitGroup
	for _, task := range s.tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.pollLoop(ctx, t)
		}(task)
	}

	<-ctx.Done()
	wg.Wait()
	log.Println("Poll scheduler stopped")
}

func (s *Scheduler) pollLoop(ctx context.Context, t Task) {
	// Ticks run in their own goroutine so a stalled upstream cannot delay
	// the timer; the in-flight flag keeps overlap from stacking requests.
	go s.tick(ctx, t)

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.tick(ctx, t)
		}
	}
}

// tick runs the task unless a previous run for its key is still in flight.
func (s *Scheduler) tick(ctx context.Context, t Task) {
	if !s.acquire(t.Key) {
		log.Printf("poller %s: previous run still in flight, coalescing tick", t.Key)
		return
	}
	defer s.release(t.Key)

	ctx, span := s.tracer.Start(ctx, "job."+t.Key)
	defer span.End()

	if err := t.Run(ctx); err != nil {
		log.Printf("poller %s error: %v", t.Key, err)
	}
}

func (s *Scheduler) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] {
		return false
	}
	s.inflight[key] = true
	return true
}

func (s *Scheduler) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}
