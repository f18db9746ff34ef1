package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vincit.fi/media-preview/api"
	"vincit.fi/media-preview/api/apitype"
	"vincit.fi/media-preview/backend/loader"
	"vincit.fi/media-preview/backend/media"
	"vincit.fi/media-preview/backend/replypreview"
	"vincit.fi/media-preview/common/imagereader"
	"vincit.fi/media-preview/common/logger"
)

const thumbnailSuffix = "_thumb"

var supportedFileEndings = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

func IsSupported(extension string) bool {
	return supportedFileEndings[strings.ToLower(extension)]
}

type EntryKind int

const (
	EntryPhoto EntryKind = iota
	EntryDocument
)

func (s EntryKind) String() string {
	if s == EntryDocument {
		return "document"
	}
	return "photo"
}

// Entry is one scanned file and the reply preview made for it.
type Entry struct {
	Path    string
	Kind    EntryKind
	Origin  apitype.FileOrigin
	Preview *replypreview.ReplyPreview
}

// Library turns the files of a directory into photos and documents.
//
// Image files become photos. A file named <name>_thumb.<ext> is used as the
// small size of the photo <name>.<ext>, or as the thumbnail of any other file
// called <name>.*, which then becomes a document.
type Library struct {
	fetcher     *loader.PathFetcher
	loader      api.FileLoader
	style       apitype.Style
	maxFailures int
	progress    api.ProgressReporter
	entries     []*Entry
}

func NewLibrary(fetcher *loader.PathFetcher, fileLoader api.FileLoader, style apitype.Style, maxFailures int, progress api.ProgressReporter) *Library {
	return &Library{
		fetcher:     fetcher,
		loader:      fileLoader,
		style:       style,
		maxFailures: maxFailures,
		progress:    progress,
	}
}

type scannedFile struct {
	path      string
	base      string
	extension string
	thumbnail string
}

func (s *Library) InitializeFromDirectory(directory string) error {
	logger.Info.Printf("Scanning directory '%s'", directory)
	files, err := os.ReadDir(directory)
	if err != nil {
		s.progress.Error("Could not scan directory", err)
		return fmt.Errorf("could not read directory '%s': %w", directory, err)
	}

	thumbnails := map[string]string{}
	var scanned []*scannedFile
	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}
		filePath := filepath.Join(directory, file.Name())
		extension := filepath.Ext(file.Name())
		base := strings.TrimSuffix(file.Name(), extension)
		if IsSupported(extension) && strings.HasSuffix(base, thumbnailSuffix) {
			thumbnails[strings.TrimSuffix(base, thumbnailSuffix)] = filePath
			continue
		}
		scanned = append(scanned, &scannedFile{path: filePath, base: base, extension: extension})
	}
	sort.Slice(scanned, func(i, j int) bool {
		return scanned[i].path < scanned[j].path
	})

	s.entries = nil
	for i, file := range scanned {
		file.thumbnail = thumbnails[file.base]
		origin := apitype.MessageOrigin(int64(len(directory)), int64(i+1))
		if entry, err := s.createEntry(int64(i+1), origin, file); err != nil {
			logger.Warn.Printf(" - Skipping '%s': %s", file.path, err)
		} else if entry != nil {
			logger.Debug.Printf(" - %s '%s'", entry.Kind, entry.Path)
			s.entries = append(s.entries, entry)
		}
		s.progress.Update("Scanning", i+1, len(scanned))
	}
	logger.Info.Printf("Found %d previewable files", len(s.entries))
	return nil
}

func (s *Library) createEntry(id int64, origin apitype.FileOrigin, file *scannedFile) (*Entry, error) {
	if IsSupported(file.extension) {
		photo, err := s.createPhoto(id, file)
		if err != nil {
			return nil, err
		}
		return &Entry{
			Path:    file.path,
			Kind:    EntryPhoto,
			Origin:  origin,
			Preview: replypreview.NewPhotoReplyPreview(photo, s.style),
		}, nil
	}
	if file.thumbnail == "" {
		return nil, nil
	}
	document, err := s.createDocument(id, file)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Path:    file.path,
		Kind:    EntryDocument,
		Origin:  origin,
		Preview: replypreview.NewDocumentReplyPreview(document, s.style),
	}, nil
}

func (s *Library) createPhoto(id int64, file *scannedFile) (*media.Photo, error) {
	info := media.PhotoInfo{
		Id:        media.PhotoId(id),
		Locations: map[apitype.PhotoSize]apitype.StorageImageLocation{},
		Sizes:     map[apitype.PhotoSize]int{},
	}
	location, size, err := s.register(file.path)
	if err != nil {
		return nil, err
	}
	info.Locations[apitype.PhotoSizeLarge] = location
	info.Sizes[apitype.PhotoSizeLarge] = size

	// Without a separate thumbnail the file itself is the small size too.
	info.Locations[apitype.PhotoSizeSmall] = location
	info.Sizes[apitype.PhotoSizeSmall] = size
	if file.thumbnail != "" {
		if location, size, err := s.register(file.thumbnail); err != nil {
			logger.Warn.Printf("Ignoring thumbnail '%s': %s", file.thumbnail, err)
		} else {
			info.Locations[apitype.PhotoSizeSmall] = location
			info.Sizes[apitype.PhotoSizeSmall] = size
		}
	}
	return media.NewPhoto(info, s.loader, s.style, s.maxFailures), nil
}

func (s *Library) createDocument(id int64, file *scannedFile) (*media.Document, error) {
	location, size, err := s.register(file.thumbnail)
	if err != nil {
		return nil, err
	}
	return media.NewDocument(media.DocumentInfo{
		Id:                media.DocumentId(id),
		ThumbnailLocation: location,
		ThumbnailSize:     size,
		HasThumbnail:      true,
		ThumbnailWidth:    location.Width,
		ThumbnailHeight:   location.Height,
	}, s.loader, s.style, s.maxFailures), nil
}

func (s *Library) register(path string) (apitype.StorageImageLocation, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return apitype.StorageImageLocation{}, 0, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return apitype.StorageImageLocation{}, 0, err
	}
	width, height, err := imagereader.ReadDimensions(file)
	if err != nil {
		return apitype.StorageImageLocation{}, 0, err
	}
	return s.fetcher.RegisterFile(path, width, height), int(stat.Size()), nil
}

func (s *Library) Entries() []*Entry {
	return s.entries
}

// RequestPreviews asks every unfinished preview for its image, which starts
// or continues loading. Must be called on the processing thread.
func (s *Library) RequestPreviews() {
	for _, entry := range s.entries {
		if !entry.Done() {
			entry.Preview.Image(entry.Origin)
		}
	}
}

// Done tells if nothing better can be expected for the entry.
func (s *Entry) Done() bool {
	return s.Preview.Good() || s.Preview.Checked()
}

func (s *Library) Done() bool {
	for _, entry := range s.entries {
		if !entry.Done() {
			return false
		}
	}
	return true
}
