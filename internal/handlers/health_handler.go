package handlers

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"intervai/internal/llm"
	"intervai/internal/utils"
)

type ReadinessCheck struct {
	Status  string `json:"status"` // "ok" | "failed"
	Message string `json:"message,omitempty"`
}

type ReadinessResponse struct {
	Status string                    `json:"status"` // "ready" | "not_ready"
	Checks map[string]ReadinessCheck `json:"checks"`
}

type HealthHandler struct {
	db       *gorm.DB
	rdb      *redis.Client
	provider llm.Provider
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, provider llm.Provider) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, provider: provider}
}

func (h *HealthHandler) HealthzHandler(w http.ResponseWriter, _ *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "intervai",
		"version": "1.0.0",
	})
}

func (h *HealthHandler) ReadyzHandler(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]ReadinessCheck)
	allChecksPass := true

	if h.provider == nil {
		checks["provider"] = ReadinessCheck{Status: "failed", Message: "AI provider not initialized"}
		allChecksPass = false
	} else {
		checks["provider"] = ReadinessCheck{Status: "ok"}
	}

	if h.db == nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: "Database not initialized"}
		allChecksPass = false
	} else if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		allChecksPass = false
	} else if err := sqlDB.PingContext(r.Context()); err != nil {
		checks["database"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		allChecksPass = false
	} else {
		checks["database"] = ReadinessCheck{Status: "ok"}
	}

	if h.rdb == nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: "Redis not initialized"}
		allChecksPass = false
	} else if err := h.rdb.Ping(r.Context()).Err(); err != nil {
		checks["redis"] = ReadinessCheck{Status: "failed", Message: err.Error()}
		allChecksPass = false
	} else {
		checks["redis"] = ReadinessCheck{Status: "ok"}
	}

	resp := ReadinessResponse{Checks: checks}
	if allChecksPass {
		resp.Status = "ready"
		utils.JSON(w, http.StatusOK, resp)
	} else {
		resp.Status = "not_ready"
		utils.JSON(w, http.StatusServiceUnavailable, resp)
	}
}
