package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"backend/internal/providers/minio"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrDurationExceeded = errors.New("recording exceeds the maximum duration")

type UploadInput struct {
	OwnerID     string
	Kind        Kind
	ContentType string
	Data        []byte
	Duration    time.Duration
	Thumbnail   []byte
	ThumbType   string
}

type Service interface {
	Upload(ctx context.Context, input UploadInput) (*Asset, error)
	GetByID(ctx context.Context, id string) (*Asset, error)
}

type service struct {
	repo        Repository
	store       BlobStore
	maxDuration time.Duration
	logger      *zap.SugaredLogger
}

// minioStore adapts the MinIO provider to the orchestrator's BlobStore.
type minioStore struct {
	provider *minio.MinioProvider
}

func (s *minioStore) Upload(ctx context.Context, reader io.Reader, size int64, contentType, ext string) (string, string, error) {
	return s.provider.Upload(ctx, reader, size, contentType, ext)
}

func NewService(repo Repository, minioP *minio.MinioProvider, maxDuration time.Duration, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		store:       &minioStore{provider: minioP},
		maxDuration: maxDuration,
		logger:      logger.Sugar(),
	}
}

// Upload runs a finished capture through the recorder state machine and
// persists the resulting asset. A failed upload produces no asset and no
// message; the caller may retry with the same capture.
func (s *service) Upload(ctx context.Context, input UploadInput) (*Asset, error) {
	if !input.Kind.Valid() {
		return nil, fmt.Errorf("invalid media kind %q", input.Kind)
	}
	if len(input.Data) == 0 {
		return nil, errors.New("empty media payload")
	}

	var result *Result
	var err error
	if input.Kind.Recorded() {
		if input.Duration > s.maxDuration {
			return nil, fmt.Errorf("%w: %s > %s", ErrDurationExceeded, input.Duration, s.maxDuration)
		}
		result, err = s.uploadRecorded(ctx, input)
	} else {
		result, err = s.uploadDirect(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	asset := &Asset{
		ID:              uuid.New().String(),
		OwnerID:         input.OwnerID,
		Kind:            input.Kind,
		URL:             result.URL,
		ObjectName:      result.ObjectName,
		ThumbnailURL:    result.ThumbnailURL,
		ThumbObjectName: result.ThumbObjectName,
		ContentType:     input.ContentType,
		Size:            result.Size,
		DurationMs:      result.Duration.Milliseconds(),
	}
	if err := s.repo.Create(asset); err != nil {
		return nil, fmt.Errorf("failed to persist media asset: %w", err)
	}

	s.logger.Infow("Media asset stored",
		"asset_id", asset.ID, "kind", asset.Kind, "size", asset.Size)
	return asset, nil
}

func (s *service) uploadRecorded(ctx context.Context, input UploadInput) (*Result, error) {
	rec := NewRecorder(s.store, input.Kind, input.ContentType, s.maxDuration, s.logger.Desugar())
	if err := rec.StartCapture(); err != nil {
		return nil, err
	}
	if err := rec.StartRecording(); err != nil {
		return nil, err
	}
	if _, err := rec.Write(input.Data, input.Duration); err != nil {
		return nil, err
	}
	if rec.State() == StateRecording {
		if err := rec.Stop(); err != nil {
			return nil, err
		}
	}
	if input.Kind == KindVideo && len(input.Thumbnail) > 0 {
		if err := rec.AttachThumbnail(input.Thumbnail, input.ThumbType); err != nil {
			return nil, err
		}
	}
	return rec.Upload(ctx)
}

func (s *service) uploadDirect(ctx context.Context, input UploadInput) (*Result, error) {
	size := int64(len(input.Data))
	url, objectName, err := s.store.Upload(ctx, bytes.NewReader(input.Data), size, input.ContentType, extFor(input.ContentType))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return &Result{URL: url, ObjectName: objectName, Size: size}, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Asset, error) {
	return s.repo.GetByID(id)
}
