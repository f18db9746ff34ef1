package loader

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"vincit.fi/media-preview/api"
)

// task is shared between the processing thread and one worker. Everything
// the worker writes is atomic or behind the mutex.
type task struct {
	id      uuid.UUID
	request *api.LoadRequest
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time

	cancelled atomic.Bool
	local     atomic.Bool
	offset    atomic.Int64
	total     atomic.Int64

	mux           sync.Mutex
	fileReference []byte
}

var _ api.LoadTask = (*task)(nil)

func newTask(parent context.Context, request *api.LoadRequest) *task {
	ctx, cancel := context.WithCancel(parent)
	t := &task{
		id:            uuid.New(),
		request:       request,
		ctx:           ctx,
		cancel:        cancel,
		started:       time.Now(),
		fileReference: request.Location.FileReference,
	}
	t.total.Store(int64(request.Size))
	return t
}

func (s *task) Cancel() {
	s.cancelled.Store(true)
	s.cancel()
}

func (s *task) Progress() float64 {
	total := s.total.Load()
	if total <= 0 {
		return 0
	}
	return math.Min(1, float64(s.offset.Load())/float64(total))
}

func (s *task) Offset() int {
	return int(s.offset.Load())
}

func (s *task) Local() bool {
	return s.local.Load()
}

func (s *task) RefreshFileReference(data []byte) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.fileReference = data
}

// currentRequest is what the worker fetches: the original request with the
// latest file reference.
func (s *task) currentRequest() *api.LoadRequest {
	s.mux.Lock()
	defer s.mux.Unlock()
	request := *s.request
	request.Location = request.Location.WithFileReference(s.fileReference)
	request.OnDone = nil
	return &request
}

func (s *task) reportProgress(offset int, total int) {
	s.offset.Store(int64(offset))
	if total > 0 {
		s.total.Store(int64(total))
	}
}
