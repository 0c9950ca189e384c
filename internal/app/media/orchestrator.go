package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

type State int

const (
	StateIdle State = iota
	StateCapturing
	StateRecording
	StatePreviewing
	StateUploading
	StateUploaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateRecording:
		return "recording"
	case StatePreviewing:
		return "previewing"
	case StateUploading:
		return "uploading"
	case StateUploaded:
		return "uploaded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

var (
	ErrInvalidTransition = errors.New("invalid recorder transition")

	// ErrUpload marks a retryable blob-store failure; the capture is kept
	// so the user can retry without re-recording.
	ErrUpload = errors.New("media upload failed")
)

// BlobStore is the external storage collaborator: bytes in, durable URL out.
type BlobStore interface {
	Upload(ctx context.Context, reader io.Reader, size int64, contentType, ext string) (url, objectName string, err error)
}

// Result carries the durable URLs a finished upload produced. Only with a
// Result in hand may the caller append a media message to the log.
type Result struct {
	URL             string
	ObjectName      string
	ThumbnailURL    string
	ThumbObjectName string
	Duration        time.Duration
	Size            int64
}

// Recorder drives one capture through
// idle → capturing → recording → previewing → uploading → uploaded,
// with cancel and retake exits. Recording is hard-capped locally; upload
// failure returns to a retryable state without losing the capture.
type Recorder struct {
	state       State
	kind        Kind
	contentType string
	maxDuration time.Duration

	capture   bytes.Buffer
	duration  time.Duration
	thumbnail []byte
	thumbType string

	store  BlobStore
	logger *zap.SugaredLogger
}

func NewRecorder(store BlobStore, kind Kind, contentType string, maxDuration time.Duration, logger *zap.Logger) *Recorder {
	return &Recorder{
		state:       StateIdle,
		kind:        kind,
		contentType: contentType,
		maxDuration: maxDuration,
		store:       store,
		logger:      logger.Sugar(),
	}
}

func (r *Recorder) State() State {
	return r.state
}

func (r *Recorder) transitionErr(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, r.state)
}

// StartCapture acquires the local input.
func (r *Recorder) StartCapture() error {
	if r.state != StateIdle {
		return r.transitionErr("start capture")
	}
	r.state = StateCapturing
	return nil
}

func (r *Recorder) StartRecording() error {
	if r.state != StateCapturing {
		return r.transitionErr("start recording")
	}
	r.state = StateRecording
	return nil
}

// Write appends captured samples. When the accumulated duration reaches the
// cap the recording auto-stops; the bool result reports that.
func (r *Recorder) Write(samples []byte, d time.Duration) (bool, error) {
	if r.state != StateRecording {
		return false, r.transitionErr("write samples")
	}

	remaining := r.maxDuration - r.duration
	if d >= remaining {
		// Keep only what fits under the cap, then stop.
		if remaining > 0 && d > 0 {
			keep := int(int64(len(samples)) * int64(remaining) / int64(d))
			r.capture.Write(samples[:keep])
			r.duration = r.maxDuration
		}
		r.state = StatePreviewing
		return true, nil
	}

	r.capture.Write(samples)
	r.duration += d
	return false, nil
}

func (r *Recorder) Stop() error {
	if r.state != StateRecording {
		return r.transitionErr("stop")
	}
	r.state = StatePreviewing
	return nil
}

// Cancel discards all local buffers. Valid at any point before uploading;
// it never produces a network side effect.
func (r *Recorder) Cancel() error {
	switch r.state {
	case StateCapturing, StateRecording, StatePreviewing, StateFailed:
		r.reset()
		return nil
	}
	return r.transitionErr("cancel")
}

// Retake discards the capture and returns to capturing for another attempt.
func (r *Recorder) Retake() error {
	if r.state != StatePreviewing && r.state != StateFailed {
		return r.transitionErr("retake")
	}
	r.capture.Reset()
	r.duration = 0
	r.thumbnail = nil
	r.thumbType = ""
	r.state = StateCapturing
	return nil
}

// AttachThumbnail stores the derived video still to upload alongside the
// capture.
func (r *Recorder) AttachThumbnail(data []byte, contentType string) error {
	if r.state != StatePreviewing && r.state != StateFailed {
		return r.transitionErr("attach thumbnail")
	}
	r.thumbnail = data
	r.thumbType = contentType
	return nil
}

// Upload pushes the capture (and thumbnail for video) to the blob store.
// On failure the capture is retained and the recorder stays retryable; a
// message must never be created from anything but a successful Result.
func (r *Recorder) Upload(ctx context.Context) (*Result, error) {
	if r.state != StatePreviewing && r.state != StateFailed {
		return nil, r.transitionErr("upload")
	}
	r.state = StateUploading

	size := int64(r.capture.Len())
	url, objectName, err := r.store.Upload(ctx, bytes.NewReader(r.capture.Bytes()), size, r.contentType, extFor(r.contentType))
	if err != nil {
		r.state = StateFailed
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	result := &Result{
		URL:        url,
		ObjectName: objectName,
		Duration:   r.duration,
		Size:       size,
	}

	if r.kind == KindVideo && len(r.thumbnail) > 0 {
		thumbURL, thumbObject, err := r.store.Upload(ctx, bytes.NewReader(r.thumbnail), int64(len(r.thumbnail)), r.thumbType, extFor(r.thumbType))
		if err != nil {
			r.logger.Warnw("Thumbnail upload failed, keeping capture for retry", "error", err)
			r.state = StateFailed
			return nil, fmt.Errorf("%w: %v", ErrUpload, err)
		}
		result.ThumbnailURL = thumbURL
		result.ThumbObjectName = thumbObject
	}

	r.state = StateUploaded
	return result, nil
}

func (r *Recorder) reset() {
	r.capture.Reset()
	r.duration = 0
	r.thumbnail = nil
	r.thumbType = ""
	r.state = StateIdle
}

func extFor(contentType string) string {
	switch contentType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "audio/webm", "video/webm":
		return ".webm"
	case "audio/mp4", "video/mp4":
		return ".mp4"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
