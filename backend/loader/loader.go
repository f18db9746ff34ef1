package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/backend/metrics"
	"vincit.fi/media-preview/common/event"
	"vincit.fi/media-preview/common/logger"
)

// Loader is the FileLoader used by remote image sources. Start is called on
// the processing thread, fetching happens on a fixed pool of workers and the
// result is handed back to the processing thread through the broker.
type Loader struct {
	fetcher api.Fetcher
	cache   api.BytesCache
	broker  *event.Broker
	timeout time.Duration

	input  chan *task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Only touched on the processing thread.
	tasks map[uuid.UUID]*task
}

var _ api.FileLoader = (*Loader)(nil)

// NewLoader starts the workers. cache may be nil.
func NewLoader(fetcher api.Fetcher, cache api.BytesCache, broker *event.Broker, workerCount int, queueSize int, timeout time.Duration) *Loader {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	loader := &Loader{
		fetcher: fetcher,
		cache:   cache,
		broker:  broker,
		timeout: timeout,
		input:   make(chan *task, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		tasks:   map[uuid.UUID]*task{},
	}
	broker.ConnectToProcessing(api.FileLoaded, loader.onLoaded)

	logger.Info.Printf("Starting loader with %d workers", workerCount)
	for i := 0; i < workerCount; i++ {
		loader.wg.Add(1)
		go loader.work()
	}
	return loader
}

func (s *Loader) Start(request *api.LoadRequest) api.LoadTask {
	t := newTask(s.ctx, request)
	s.tasks[t.id] = t
	metrics.LoaderTasksInFlight.Inc()
	logger.Debug.Printf("Queue %s as task %s", request, t.id)

	select {
	case s.input <- t:
	default:
		// Queue is full, Start must still not block the processing thread.
		go func() {
			select {
			case s.input <- t:
			case <-s.ctx.Done():
			}
		}()
	}
	return t
}

func (s *Loader) Pending() int {
	return len(s.tasks)
}

func (s *Loader) work() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case t := <-s.input:
			if t.cancelled.Load() {
				s.publish(t, &api.LoadResult{Err: context.Canceled})
				continue
			}
			s.publish(t, s.load(t))
		}
	}
}

func (s *Loader) load(t *task) *api.LoadResult {
	ctx := t.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	request := t.currentRequest()

	if s.cache != nil {
		if bytes, err := s.cache.Get(ctx, request.CacheKey); err == nil {
			logger.Trace.Printf("Task %s: %s found in cache", t.id, request)
			t.local.Store(true)
			t.reportProgress(len(bytes), len(bytes))
			metrics.LoaderFetches.WithLabelValues("cache").Inc()
			return &api.LoadResult{Bytes: bytes, Local: true}
		} else if !errors.Is(err, api.ErrNotCached) {
			logger.Warn.Printf("Task %s: could not read cache: %s", t.id, err)
		}
	}

	bytes, err := s.fetcher.Fetch(ctx, request, t.reportProgress)
	if err != nil {
		if t.cancelled.Load() {
			metrics.LoaderFetches.WithLabelValues("cancelled").Inc()
		} else {
			metrics.LoaderFetches.WithLabelValues("error").Inc()
		}
		return &api.LoadResult{Err: fmt.Errorf("fetch %s: %w", request, err)}
	}
	metrics.LoaderFetches.WithLabelValues("fetched").Inc()

	if s.cache != nil && !request.CacheKey.IsEmpty() {
		if err := s.cache.Put(ctx, request.CacheKey, bytes); err != nil {
			logger.Warn.Printf("Task %s: could not store %s in cache: %s", t.id, request, err)
		}
	}
	return &api.LoadResult{Bytes: bytes}
}

func (s *Loader) publish(t *task, result *api.LoadResult) {
	metrics.LoaderFetchDuration.Observe(time.Since(t.started).Seconds())
	s.broker.SendCommandToTopic(api.FileLoaded, &api.FileLoadedCommand{
		TaskId: t.id,
		Result: result,
	})
}

func (s *Loader) onLoaded(command *api.FileLoadedCommand) {
	t, ok := s.tasks[command.TaskId]
	if !ok {
		logger.Trace.Printf("Unknown task %s", command.TaskId)
		return
	}
	delete(s.tasks, command.TaskId)
	metrics.LoaderTasksInFlight.Dec()
	t.cancel()

	if t.cancelled.Load() {
		logger.Trace.Printf("Task %s was cancelled, dropping result", t.id)
		return
	}
	if command.Result.Err != nil {
		logger.Warn.Printf("Task %s failed: %s", t.id, command.Result.Err)
	}
	if t.request.OnDone != nil {
		t.request.OnDone(command.Result)
	}
}

// Close stops the workers. Results that were not delivered yet are dropped.
func (s *Loader) Close() {
	s.cancel()
	s.wg.Wait()
	logger.Debug.Printf("Loader stopped")
}
