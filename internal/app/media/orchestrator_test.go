package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	calls    int
	failNext bool
	objects  [][]byte
}

func (f *fakeStore) Upload(ctx context.Context, reader io.Reader, size int64, contentType, ext string) (string, string, error) {
	f.calls++
	if f.failNext {
		f.failNext = false
		return "", "", errors.New("connection reset")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", "", err
	}
	f.objects = append(f.objects, data)
	return "https://cdn.example/o" + ext, "o" + ext, nil
}

func newVoiceRecorder(store BlobStore) *Recorder {
	return NewRecorder(store, KindVoice, "audio/mp4", 60*time.Second, zap.NewNop())
}

func recordSomething(t *testing.T, r *Recorder) {
	t.Helper()
	require.NoError(t, r.StartCapture())
	require.NoError(t, r.StartRecording())
	capped, err := r.Write([]byte("samples"), 2*time.Second)
	require.NoError(t, err)
	require.False(t, capped)
	require.NoError(t, r.Stop())
}

func TestRecorderHappyPath(t *testing.T) {
	store := &fakeStore{}
	r := newVoiceRecorder(store)

	recordSomething(t, r)
	assert.Equal(t, StatePreviewing, r.State())

	result, err := r.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUploaded, r.State())
	assert.Equal(t, "https://cdn.example/o.mp4", result.URL)
	assert.Equal(t, 2*time.Second, result.Duration)
	assert.Equal(t, int64(len("samples")), result.Size)
	assert.Equal(t, 1, store.calls)
}

func TestRecorderRejectsOutOfOrderTransitions(t *testing.T) {
	r := newVoiceRecorder(&fakeStore{})

	assert.ErrorIs(t, r.StartRecording(), ErrInvalidTransition)
	_, err := r.Write([]byte("x"), time.Second)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, r.Stop(), ErrInvalidTransition)
	_, err = r.Upload(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, r.StartCapture())
	assert.ErrorIs(t, r.StartCapture(), ErrInvalidTransition)
}

func TestRecorderCancelBeforeUploadTouchesNothing(t *testing.T) {
	store := &fakeStore{}
	r := newVoiceRecorder(store)

	recordSomething(t, r)
	require.NoError(t, r.Cancel())

	assert.Equal(t, StateIdle, r.State())
	assert.Zero(t, store.calls, "cancel never reaches the blob store")

	// The recorder is reusable after a cancel.
	require.NoError(t, r.StartCapture())
}

func TestRecorderAutoStopsAtDurationCap(t *testing.T) {
	r := NewRecorder(&fakeStore{}, KindVoice, "audio/mp4", 60*time.Second, zap.NewNop())
	require.NoError(t, r.StartCapture())
	require.NoError(t, r.StartRecording())

	capped, err := r.Write(bytes.Repeat([]byte{1}, 1000), 50*time.Second)
	require.NoError(t, err)
	assert.False(t, capped)

	capped, err = r.Write(bytes.Repeat([]byte{2}, 1000), 20*time.Second)
	require.NoError(t, err)
	assert.True(t, capped, "cap reached mid-write stops the recording")
	assert.Equal(t, StatePreviewing, r.State())

	result, err := r.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, result.Duration)
	// Only the 10 seconds that fit under the cap were kept of the last write.
	assert.Equal(t, int64(1500), result.Size)
}

func TestRecorderUploadFailureIsRetryableKeepingCapture(t *testing.T) {
	store := &fakeStore{failNext: true}
	r := newVoiceRecorder(store)

	recordSomething(t, r)

	_, err := r.Upload(context.Background())
	require.ErrorIs(t, err, ErrUpload)
	assert.Equal(t, StateFailed, r.State())

	// Retry without re-recording succeeds with the retained capture.
	result, err := r.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateUploaded, r.State())
	assert.Equal(t, int64(len("samples")), result.Size)
	assert.Equal(t, []byte("samples"), store.objects[0])
	assert.Equal(t, 2, store.calls)
}

func TestRecorderRetakeDiscardsCapture(t *testing.T) {
	store := &fakeStore{}
	r := newVoiceRecorder(store)

	recordSomething(t, r)
	require.NoError(t, r.Retake())
	assert.Equal(t, StateCapturing, r.State())

	require.NoError(t, r.StartRecording())
	_, err := r.Write([]byte("take two"), time.Second)
	require.NoError(t, err)
	require.NoError(t, r.Stop())

	result, err := r.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(len("take two")), result.Size)
	assert.Equal(t, []byte("take two"), store.objects[0])
}

func TestRecorderVideoUploadsThumbnailToo(t *testing.T) {
	store := &fakeStore{}
	r := NewRecorder(store, KindVideo, "video/mp4", 60*time.Second, zap.NewNop())

	recordSomething(t, r)
	require.NoError(t, r.AttachThumbnail([]byte("still"), "image/jpeg"))

	result, err := r.Upload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.NotEmpty(t, result.ThumbnailURL)
	assert.Equal(t, "https://cdn.example/o.jpg", result.ThumbnailURL)
}
