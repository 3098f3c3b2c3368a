package handlers

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/utils"
)

// Uploads above this size are rejected before touching the provider.
const maxAudioUploadBytes = 20 << 20

type AudioHandler struct {
	provider llm.Provider
	logger   *zap.Logger
}

func NewAudioHandler(provider llm.Provider, logger *zap.Logger) *AudioHandler {
	return &AudioHandler{provider: provider, logger: logger}
}

// TranscribeHandler accepts a multipart "file" part and returns its
// transcription. This is the one AI path with no fallback: a provider
// failure surfaces as a 500.
func (h *AudioHandler) TranscribeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioUploadBytes)
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_upload",
			Message: "Expected a multipart upload with a file part",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "missing_file",
			Message: "file part is required",
		})
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "invalid_upload",
			Message: "Failed to read uploaded file",
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	text, err := h.provider.TranscribeAudio(r.Context(), audio, mimeType)
	if err != nil {
		h.logger.Error("transcription failed",
			zap.String("filename", header.Filename), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{
			Code:    "transcription_failed",
			Message: "Failed to transcribe audio",
		})
		return
	}

	utils.JSON(w, http.StatusOK, models.TranscribeResponse{Text: text})
}
