package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/podium/internal/adapters/mq/queue"
	worker "github.com/okian/podium/internal/adapters/mq/worker"
	model "github.com/okian/podium/internal/domain/model"
	logging "github.com/okian/podium/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type recordingSink struct {
	name string
	fail error
	mu   sync.Mutex
	got  []model.Snapshot
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Broadcast(_ context.Context, _, _ string, snap model.Snapshot) error {
	if s.fail != nil {
		return s.fail
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, snap)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func broadcast(v int64) queue.Item {
	return queue.Item{EventID: "e1", Channel: model.LeaderboardChannel("e1"), Snapshot: model.Snapshot{EventID: "e1", Version: v}}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with two sinks", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		ok := &recordingSink{name: "hub"}
		bad := &recordingSink{name: "nats", fail: errors.New("no connection")}
		w := worker.NewInMemoryWorker(q, []worker.Sink{bad, ok}, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When an item is enqueued", func() {
			convey.So(q.Enqueue(ctx, broadcast(1)), convey.ShouldBeNil)

			convey.Convey("Then the healthy sink receives it despite the failing one", func() {
				convey.So(waitFor(func() bool { return ok.count() == 1 }), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the queue is closed", func() {
			convey.So(q.Enqueue(ctx, broadcast(1)), convey.ShouldBeNil)
			convey.So(q.Enqueue(ctx, broadcast(2)), convey.ShouldBeNil)
			convey.So(q.Close(), convey.ShouldBeNil)

			convey.Convey("Then the worker drains and exits", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not exit")
				}
				convey.So(ok.count(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When stopped", func() {
			w.Stop()
			w.Stop()

			convey.Convey("Then it exits", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					t.Fatal("worker did not exit")
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of three workers", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		sink := &recordingSink{name: "hub"}
		pool := worker.NewPool(3, q, []worker.Sink{sink})
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When many items are enqueued and the pool shuts down", func() {
			for v := int64(1); v <= 50; v++ {
				convey.So(q.Enqueue(ctx, broadcast(v)), convey.ShouldBeNil)
			}
			sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then every item is delivered exactly once", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sink.count(), convey.ShouldEqual, 50)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), nil)
		convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
	})
}
