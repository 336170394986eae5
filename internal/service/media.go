package service

import (
	"context"
	"mime/multipart"
	"path/filepath"
	"strings"

	"camera_market/internal/apperror"
	"camera_market/internal/media"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// SavedFile is one stored upload.
type SavedFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// MediaService stores camera photos.
type MediaService struct {
	store media.Store
}

// NewMediaService wires uploads to a media store.
func NewMediaService(store media.Store) *MediaService {
	return &MediaService{store: store}
}

// Upload saves every image among files under a random name and returns their public paths.
// Files with an unsupported extension are skipped. A failed save removes the files already stored.
func (s *MediaService) Upload(ctx context.Context, files []*multipart.FileHeader) ([]SavedFile, error) {
	if len(files) == 0 {
		return nil, apperror.InvalidInput("files", "no files uploaded")
	}

	saved := make([]SavedFile, 0, len(files))
	keys := make([]string, 0, len(files))
	for _, fh := range files {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !allowedImageExts[ext] {
			logrus.WithFields(logrus.Fields{"filename": fh.Filename}).Debug("Skipping non-image upload")
			continue
		}
		name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
		key := "cameras/" + name

		if err := s.put(ctx, key, fh); err != nil {
			s.discard(ctx, keys)
			return nil, apperror.Unavailable("media store", err)
		}
		keys = append(keys, key)
		saved = append(saved, SavedFile{Filename: name, Path: media.PublicPath(key)})
	}
	if len(saved) == 0 {
		return nil, apperror.InvalidInput("files", "no supported images uploaded")
	}

	logrus.WithFields(logrus.Fields{"count": len(saved)}).Info("Media uploaded")
	return saved, nil
}

func (s *MediaService) put(ctx context.Context, key string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	return s.store.Put(ctx, key, f, fh.Size, fh.Header.Get("Content-Type"))
}

// discard removes objects stored by an upload that did not complete.
func (s *MediaService) discard(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Failed to remove partial upload")
		}
	}
}
