package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"intervai/internal/middleware"
	"intervai/internal/models"
	"intervai/internal/questions"
	"intervai/internal/utils"
)

type QuestionHandler struct {
	generator *questions.Generator
	guides    *questions.GuideGenerator
	logger    *zap.Logger
}

func NewQuestionHandler(generator *questions.Generator, guides *questions.GuideGenerator, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{
		generator: generator,
		guides:    guides,
		logger:    logger,
	}
}

// GenerateQuestionsHandler builds (or returns the existing) question bank
// for an optimization. Count outside [10,15] is clamped, not rejected.
func (h *QuestionHandler) GenerateQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	optimizationID := r.URL.Query().Get("optimizationId")
	if optimizationID == "" {
		utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
			Code:    "missing_optimization_id",
			Message: "optimizationId query parameter is required",
		})
		return
	}

	count := models.DefaultQuestionCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
				Code:    "invalid_count",
				Message: "count must be an integer",
			})
			return
		}
		count = parsed
	}

	bank, source, err := h.generator.Generate(r.Context(), optimizationID, userID, count)
	if err != nil {
		h.logger.Warn("question generation failed",
			zap.String("optimizationId", optimizationID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	h.logger.Info("question bank ready",
		zap.String("optimizationId", optimizationID),
		zap.Int("count", len(bank)),
		zap.String("source", string(source)))
	utils.JSON(w, http.StatusOK, bank)
}

func (h *QuestionHandler) GetQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	optimizationID := chi.URLParam(r, "optimizationId")

	bank, err := h.generator.GetQuestions(r.Context(), optimizationID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, bank)
}

// GuideHandler returns a Markdown preparation guide for an optimization.
func (h *QuestionHandler) GuideHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	optimizationID := chi.URLParam(r, "optimizationId")

	guide, err := h.guides.Generate(r.Context(), optimizationID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{"guide": guide})
}
