package imagesource

import (
	"image"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/metrics"
	"vincit.fi/media-preview/common/imagereader"
	"vincit.fi/media-preview/common/logger"
)

// DefaultMaxFailures is how many failed fetches or decodes in a row a remote
// source tolerates before it stops requesting the file.
const DefaultMaxFailures = 3

type requestBuilder func(origin apitype.FileOrigin) *api.LoadRequest

// remoteSource is the loading state shared by every source whose bytes come
// through a FileLoader.
type remoteSource struct {
	loader       api.FileLoader
	buildRequest requestBuilder
	name         func() string

	task       api.LoadTask
	generation int
	cancelled  bool
	lastOffset int

	loaded image.Image
	bytes  []byte
	format string

	failures    int
	maxFailures int
	failed      bool

	size   int
	width  int
	height int
}

func newRemoteSource(loader api.FileLoader, size int, width int, height int) remoteSource {
	return remoteSource{
		loader:      loader,
		maxFailures: DefaultMaxFailures,
		size:        size,
		width:       width,
		height:      height,
	}
}

func (s *remoteSource) Load(origin apitype.FileOrigin) {
	if s.failed || s.cancelled || s.task != nil || s.loaded != nil || len(s.bytes) > 0 {
		return
	}
	if s.loader == nil {
		return
	}
	request := s.buildRequest(origin)
	if request == nil {
		return
	}
	s.start(request)
}

func (s *remoteSource) start(request *api.LoadRequest) {
	s.generation++
	generation := s.generation
	request.OnDone = func(result *api.LoadResult) {
		s.finish(generation, result)
	}
	logger.Trace.Printf("Start loading %s for %s", request, request.Origin)
	s.task = s.loader.Start(request)
}

func (s *remoteSource) finish(generation int, result *api.LoadResult) {
	if generation != s.generation {
		logger.Trace.Printf("Dropping stale result for %s", s.name())
		return
	}
	s.task = nil
	s.lastOffset = 0

	if result.Err != nil {
		s.fail("fetch", result.Err)
		return
	}
	decoded, format, err := imagereader.Decode(result.Bytes)
	if err != nil {
		s.fail("decode", err)
		return
	}
	s.failures = 0
	s.loaded = decoded
	s.bytes = result.Bytes
	s.format = format
	s.size = len(result.Bytes)
	s.width = decoded.Bounds().Dx()
	s.height = decoded.Bounds().Dy()
	logger.Trace.Printf("Loaded %s (%dx%d, local: %t)", s.name(), s.width, s.height, result.Local)
}

func (s *remoteSource) fail(kind string, err error) {
	s.failures++
	metrics.SourceFailures.WithLabelValues(kind).Inc()
	if s.maxFailures > 0 && s.failures >= s.maxFailures {
		s.failed = true
		metrics.SourcesGivenUp.Inc()
		logger.Error.Printf("Giving up %s after %d failures: %s", s.name(), s.failures, err)
	} else {
		logger.Warn.Printf("Could not %s %s (%d/%d): %s", kind, s.name(), s.failures, s.maxFailures, err)
	}
}

// dropTask forgets the running task without marking the source cancelled.
func (s *remoteSource) dropTask() {
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
		s.generation++
	}
}

func (s *remoteSource) LoadEvenCancelled(origin apitype.FileOrigin) {
	s.cancelled = false
	if s.failed {
		s.failed = false
		s.failures = 0
	}
	s.Load(origin)
}

func (s *remoteSource) TakeLoaded() image.Image {
	loaded := s.loaded
	s.loaded = nil
	return loaded
}

func (s *remoteSource) Unload() {
	s.dropTask()
	s.loaded = nil
	s.bytes = nil
}

func (s *remoteSource) Loading() bool {
	return s.task != nil
}

// DisplayLoading also covers a partially fetched file whose download was
// cancelled and can still be resumed.
func (s *remoteSource) DisplayLoading() bool {
	if s.task != nil {
		return !s.task.Local()
	}
	return s.cancelled && !s.failed && s.lastOffset > 0
}

func (s *remoteSource) Cancel() {
	if s.task == nil {
		return
	}
	s.lastOffset = s.task.Offset()
	s.dropTask()
	s.cancelled = true
}

func (s *remoteSource) Progress() float64 {
	if s.loaded != nil || len(s.bytes) > 0 {
		return 1
	}
	if s.task != nil {
		return s.task.Progress()
	}
	return 0
}

func (s *remoteSource) LoadOffset() int {
	if s.task != nil {
		return s.task.Offset()
	}
	return s.lastOffset
}

func (s *remoteSource) SetImageBytes(bytes []byte) {
	decoded, format, err := imagereader.Decode(bytes)
	if err != nil {
		logger.Warn.Printf("Could not use image bytes for %s: %s", s.name(), err)
		return
	}
	s.dropTask()
	s.cancelled = false
	s.failed = false
	s.failures = 0
	s.loaded = decoded
	s.bytes = bytes
	s.format = format
	s.size = len(bytes)
	s.width = decoded.Bounds().Dx()
	s.height = decoded.Bounds().Dy()
}

func (s *remoteSource) Width() int {
	return s.width
}

func (s *remoteSource) Height() int {
	return s.height
}

func (s *remoteSource) BytesSize() int {
	return s.size
}

func (s *remoteSource) SetInformation(size int, width int, height int) {
	if size > 0 {
		s.size = size
	}
	if width > 0 && height > 0 {
		s.width = width
		s.height = height
	}
}

func (s *remoteSource) BytesForCache() []byte {
	return s.bytes
}

func (s *remoteSource) Failed() bool {
	return s.failed
}

func (s *remoteSource) SetMaxFailures(maxFailures int) {
	s.maxFailures = maxFailures
}

func (s *remoteSource) Format() string {
	return s.format
}
