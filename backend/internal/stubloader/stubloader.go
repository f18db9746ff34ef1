package stubloader

import (
	"image"
	"image/color"
	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/common/imagereader"
)

// Loader records every started request and lets tests complete them by hand.
type Loader struct {
	Requests []*api.LoadRequest
	Tasks    []*Task
}

func New() *Loader {
	return &Loader{}
}

func (s *Loader) Start(request *api.LoadRequest) api.LoadTask {
	task := &Task{request: request}
	s.Requests = append(s.Requests, request)
	s.Tasks = append(s.Tasks, task)
	return task
}

func (s *Loader) StartCount() int {
	return len(s.Requests)
}

func (s *Loader) Last() *Task {
	if len(s.Tasks) == 0 {
		return nil
	}
	return s.Tasks[len(s.Tasks)-1]
}

// Task is a LoadTask whose completion is driven by the test.
type Task struct {
	request       *api.LoadRequest
	Cancelled     bool
	IsLocal       bool
	CurrentOffset int
	Fraction      float64
	FileReference []byte
}

func (s *Task) Request() *api.LoadRequest {
	return s.request
}

func (s *Task) Cancel() {
	s.Cancelled = true
}

func (s *Task) Progress() float64 {
	return s.Fraction
}

func (s *Task) Offset() int {
	return s.CurrentOffset
}

func (s *Task) Local() bool {
	return s.IsLocal
}

func (s *Task) RefreshFileReference(data []byte) {
	s.FileReference = data
}

// Complete delivers bytes unless the task was cancelled, the same as the
// real loader does.
func (s *Task) Complete(bytes []byte) {
	if s.Cancelled {
		return
	}
	s.request.OnDone(&api.LoadResult{Bytes: bytes})
}

func (s *Task) Fail(err error) {
	if s.Cancelled {
		return
	}
	s.request.OnDone(&api.LoadResult{Err: err})
}

// DeliverStale calls the completion callback even for a cancelled task.
func (s *Task) DeliverStale(bytes []byte) {
	s.request.OnDone(&api.LoadResult{Bytes: bytes})
}

// PNG returns the encoded bytes of a single colored image.
func PNG(width int, height int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	bytes, err := imagereader.Encode(img, "PNG")
	if err != nil {
		panic(err)
	}
	return bytes
}
