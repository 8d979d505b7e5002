package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/notfound/ballog/internal/adapters/mq/queue"
	"github.com/notfound/ballog/internal/adapters/mq/worker"
	"github.com/notfound/ballog/pkg/logger"
)

// recordingAggregator counts AggregateTeam calls and can fail selected teams.
type recordingAggregator struct {
	mu       sync.Mutex
	seen     map[int64]int
	failures map[int64]error
	done     chan struct{}
	expect   int
}

func newRecordingAggregator(expect int) *recordingAggregator {
	return &recordingAggregator{
		seen:     make(map[int64]int),
		failures: make(map[int64]error),
		done:     make(chan struct{}),
		expect:   expect,
	}
}

func (a *recordingAggregator) AggregateTeam(_ context.Context, teamID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen[teamID]++
	if a.total() == a.expect {
		close(a.done)
	}
	return a.failures[teamID]
}

func (a *recordingAggregator) total() int {
	n := 0
	for _, c := range a.seen {
		n += c
	}
	return n
}

func (a *recordingAggregator) wait(t *testing.T) {
	t.Helper()
	select {
	case <-a.done:
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator did not receive all jobs")
	}
}

func TestWorkerPool(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	Convey("Given a pool of workers on a shared queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		agg := newRecordingAggregator(3)

		pool := worker.NewPool(2, q, agg)
		pool.Start(ctx)
		defer pool.Stop()

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, queue.Job{TeamID: 1}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{TeamID: 2}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{TeamID: 3}), ShouldBeTrue)

			Convey("Then every team is aggregated exactly once", func() {
				agg.wait(t)

				agg.mu.Lock()
				defer agg.mu.Unlock()
				So(agg.seen[1], ShouldEqual, 1)
				So(agg.seen[2], ShouldEqual, 1)
				So(agg.seen[3], ShouldEqual, 1)
			})
		})
	})

	Convey("Given an aggregator that fails one team", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		agg := newRecordingAggregator(3)
		agg.failures[2] = errors.New("storage offline")

		pool := worker.NewPool(1, q, agg)
		pool.Start(ctx)
		defer pool.Stop()

		Convey("When three jobs flow through", func() {
			q.Enqueue(ctx, queue.Job{TeamID: 1})
			q.Enqueue(ctx, queue.Job{TeamID: 2})
			q.Enqueue(ctx, queue.Job{TeamID: 3})

			Convey("Then the failure is isolated and later teams still run", func() {
				agg.wait(t)

				agg.mu.Lock()
				defer agg.mu.Unlock()
				So(agg.seen[3], ShouldEqual, 1)
			})
		})
	})

	Convey("Given a started single worker", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		agg := newRecordingAggregator(1)
		w := worker.NewWorker(q, agg)

		runCtx, cancel := context.WithCancel(ctx)
		go w.Run(runCtx)

		Convey("When it is shut down", func() {
			shutdownCtx, sc := context.WithTimeout(ctx, time.Second)
			defer sc()

			So(w.Shutdown(shutdownCtx), ShouldBeNil)
			cancel()
		})
	})
}
