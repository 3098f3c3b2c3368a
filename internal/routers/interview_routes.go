package routers

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"intervai/internal/handlers"
	"intervai/internal/middleware"
	"intervai/internal/models"
)

// RequestTimeout bounds one REST request. The server's write timeout must
// outlast it or slow report/generation calls get cut off mid-response.
const RequestTimeout = 60 * time.Second

// InterviewRoutes mounts the authenticated interview API. Rate limits follow
// the per-operation allowances; session state reads are unlimited.
func InterviewRoutes(
	router *chi.Mux,
	jwtSecret string,
	limiter *middleware.RateLimiter,
	interview *handlers.InterviewHandler,
	question *handlers.QuestionHandler,
	audio *handlers.AudioHandler,
) {
	router.Route("/api/v1/interview", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(RequestTimeout))
		r.Use(middleware.RequireAuth(jwtSecret))

		r.With(
			limiter.Limit("session_start", middleware.PerMinute(12)),
			middleware.ValidateRequest[*models.StartSessionRequest](),
		).Post("/session", interview.StartSessionHandler)

		r.With(
			limiter.Limit("answer", middleware.PerMinute(20)),
			middleware.ValidateRequest[*models.SubmitAnswerRequest](),
		).Post("/session/{id}/answer", interview.SubmitAnswerHandler)

		r.Get("/session/{id}/current", interview.SessionStateHandler)

		r.With(limiter.Limit("session_start", middleware.PerMinute(12))).
			Post("/session/{id}/end", interview.EndSessionHandler)

		r.With(limiter.Limit("report", middleware.PerMinute(5))).
			Get("/session/{id}/report", interview.ReportHandler)

		r.With(middleware.ValidateRequest[*models.ChatRequest]()).
			Post("/session/{id}/chat", interview.ChatHandler)

		r.With(limiter.Limit("question_gen", middleware.PerMinute(6))).
			Post("/questions", question.GenerateQuestionsHandler)

		r.Get("/questions/{optimizationId}", question.GetQuestionsHandler)

		r.With(limiter.Limit("guide", middleware.PerMinute(8))).
			Get("/guide/{optimizationId}", question.GuideHandler)

		r.With(limiter.Limit("transcribe", middleware.PerMinute(8))).
			Post("/audio/transcribe", audio.TranscribeHandler)
	})
}
