package api

import (
	"github.com/google/uuid"
)

type Topic string

const (
	FileLoaded           Topic = "file-loaded"
	ProcessStatusUpdated Topic = "process-status-updated"
	ShowError            Topic = "show-error"
)

type FileLoadedCommand struct {
	TaskId uuid.UUID
	Result *LoadResult
}

type ErrorCommand struct {
	Message string
}

type UpdateProgressCommand struct {
	Name    string
	Current int
	Total   int
}
