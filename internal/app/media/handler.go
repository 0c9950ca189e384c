package media

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"backend/internal/app/message"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler interface {
	Upload(c *gin.Context)
	GetAsset(c *gin.Context)
}

type handler struct {
	service Service
	logger  *zap.SugaredLogger
}

func NewHandler(service Service, logger *zap.Logger) Handler {
	return &handler{
		service: service,
		logger:  logger.Sugar(),
	}
}

// Upload accepts a finished local capture and returns the durable asset.
// The client appends the corresponding message only after this succeeds.
func (h *handler) Upload(c *gin.Context) {
	participantID := message.ParticipantID(c)
	if participantID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "participant_id is required"})
		return
	}

	kind := Kind(c.PostForm("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid media kind"})
		return
	}

	durationMs, _ := strconv.ParseInt(c.PostForm("duration_ms"), 10, 64)

	fileHeader, err := c.FormFile("media")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "media file is required"})
		return
	}
	data, contentType, err := readMultipartFile(c, "media")
	if err != nil {
		h.logger.Errorw("Failed to read media upload", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read media file"})
		return
	}
	if contentType == "" {
		contentType = fileHeader.Header.Get("Content-Type")
	}

	input := UploadInput{
		OwnerID:     participantID,
		Kind:        kind,
		ContentType: contentType,
		Data:        data,
		Duration:    time.Duration(durationMs) * time.Millisecond,
	}

	if kind == KindVideo {
		if thumb, thumbType, err := readMultipartFile(c, "thumbnail"); err == nil {
			input.Thumbnail = thumb
			input.ThumbType = thumbType
		}
	}

	asset, err := h.service.Upload(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, ErrDurationExceeded):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrUpload):
			// Retryable: the client keeps its capture and may try again.
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		default:
			h.logger.Errorw("Media upload failed", "kind", kind, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "media upload failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, asset)
}

func (h *handler) GetAsset(c *gin.Context) {
	id := c.Param("id")

	asset, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "asset not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get asset"})
		return
	}

	c.JSON(http.StatusOK, asset)
}

func readMultipartFile(c *gin.Context, field string) ([]byte, string, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", err
	}
	return data, fileHeader.Header.Get("Content-Type"), nil
}
