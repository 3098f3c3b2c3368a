package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"intervai/internal/evaluation"
	"intervai/internal/middleware"
	"intervai/internal/models"
	"intervai/internal/session"
	"intervai/internal/utils"
)

type InterviewHandler struct {
	orchestrator *session.Orchestrator
	evaluator    *evaluation.Evaluator
	logger       *zap.Logger
}

func NewInterviewHandler(orchestrator *session.Orchestrator, evaluator *evaluation.Evaluator, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		orchestrator: orchestrator,
		evaluator:    evaluator,
		logger:       logger,
	}
}

func (h *InterviewHandler) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.StartSessionRequest](r)
	userID := middleware.GetUserID(r)

	resp, err := h.orchestrator.Start(r.Context(), userID, req)
	if err != nil {
		h.logger.Warn("failed to start session",
			zap.String("userId", userID),
			zap.String("optimizationId", req.OptimizationID),
			zap.Error(err))
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, resp)
}

func (h *InterviewHandler) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.SubmitAnswerRequest](r)
	userID := middleware.GetUserID(r)
	sessionID := chi.URLParam(r, "id")

	resp, err := h.orchestrator.SubmitAnswer(r.Context(), userID, sessionID, req)
	if err != nil {
		h.logger.Warn("failed to submit answer",
			zap.String("sessionId", sessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, resp)
}

func (h *InterviewHandler) SessionStateHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	sessionID := chi.URLParam(r, "id")

	resp, err := h.orchestrator.GetState(r.Context(), userID, sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, resp)
}

func (h *InterviewHandler) EndSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	sessionID := chi.URLParam(r, "id")

	if _, err := h.orchestrator.End(r.Context(), userID, sessionID); err != nil {
		h.logger.Warn("failed to end session",
			zap.String("sessionId", sessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *InterviewHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.ChatRequest](r)
	userID := middleware.GetUserID(r)
	sessionID := chi.URLParam(r, "id")

	resp, err := h.orchestrator.Chat(r.Context(), userID, sessionID, req)
	if err != nil {
		h.logger.Warn("interviewer chat failed",
			zap.String("sessionId", sessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, resp)
}

func (h *InterviewHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	sessionID := chi.URLParam(r, "id")

	report, err := h.evaluator.GenerateReport(r.Context(), userID, sessionID)
	if err != nil {
		h.logger.Warn("report generation rejected",
			zap.String("sessionId", sessionID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, report)
}
