package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"intervai/internal/llm"
	"intervai/internal/models"
	"intervai/internal/session"
	"intervai/internal/storage/object"
	"intervai/internal/utils"
	"intervai/internal/voice"
)

const (
	audioMIMEType = "audio/webm"
	// Every Nth buffered chunk triggers a best-effort partial transcription.
	partialTranscribeEvery = 5
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Handler serves the realtime interview endpoint: authenticated clients
// stream answer audio and receive next questions as text plus synthesized
// speech.
type Handler struct {
	jwtSecret    string
	store        Store
	hub          *Hub
	orchestrator *session.Orchestrator
	provider     llm.Provider
	objects      object.Store
	voices       voice.Client
	logger       *zap.Logger
}

func NewHandler(
	jwtSecret string,
	store Store,
	hub *Hub,
	orchestrator *session.Orchestrator,
	provider llm.Provider,
	objects object.Store,
	voices voice.Client,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		jwtSecret:    jwtSecret,
		store:        store,
		hub:          hub,
		orchestrator: orchestrator,
		provider:     provider,
		objects:      objects,
		voices:       voices,
		logger:       logger,
	}
}

type joinRequest struct {
	SessionID string `json:"sessionId"`
}

// InterviewWS upgrades the connection after verifying the bearer token from
// the "token" query parameter or the Authorization header.
func (h *Handler) InterviewWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	claims, err := utils.VerifyTokenString(token, h.jwtSecret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := utils.GetUserIDFromClaims(claims)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := NewClient(uuid.New().String(), conn)
	ctx := r.Context()
	if err := h.store.Set(ctx, client.ID, ConnState{UserID: userID}); err != nil {
		h.logger.Error("failed to store connection state", zap.Error(err))
		return
	}
	defer func() {
		state, err := h.store.Get(context.Background(), client.ID)
		if err == nil && state.SessionID != "" {
			room := h.hub.GetOrCreate(state.SessionID)
			if left := room.Leave(client); left == 0 {
				h.hub.Delete(state.SessionID)
			}
		}
		_ = h.store.Delete(context.Background(), client.ID)
	}()

	h.logger.Info("gateway connection opened",
		zap.String("connId", client.ID), zap.String("userId", userID))

	for {
		msgType, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			h.handleAudioChunk(ctx, client, payload)
		case websocket.TextMessage:
			var frame WSFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				client.Send(errFrame("malformed frame"))
				continue
			}
			h.handleFrame(ctx, client, frame)
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, frame WSFrame) {
	switch frame.Type {
	case "join_interview":
		var req joinRequest
		remarshal(frame.Data, &req)
		h.handleJoin(ctx, client, req.SessionID)
	case "end_audio":
		h.handleEndAudio(ctx, client)
	case "ping":
		client.Send(WSFrame{Type: "pong"})
	default:
		client.Send(errFrame("unknown event: " + frame.Type))
	}
}

func (h *Handler) handleJoin(ctx context.Context, client *Client, sessionID string) {
	state, err := h.store.Get(ctx, client.ID)
	if err != nil {
		client.Send(errFrame("connection state lost"))
		return
	}

	// Ownership check before the room join.
	if _, err := h.orchestrator.GetState(ctx, state.UserID, sessionID); err != nil {
		client.Send(errFrame("cannot join session"))
		return
	}

	state.SessionID = sessionID
	state.ChunkCount = 0
	if err := h.store.Set(ctx, client.ID, state); err != nil {
		client.Send(errFrame("connection state lost"))
		return
	}

	h.hub.GetOrCreate(sessionID).Join(client)
	client.Send(WSFrame{Type: "joined_interview", Data: map[string]string{"sessionId": sessionID}})
}

func (h *Handler) handleAudioChunk(ctx context.Context, client *Client, chunk []byte) {
	state, err := h.store.Get(ctx, client.ID)
	if err != nil || state.SessionID == "" {
		client.Send(errFrame("join a session before streaming audio"))
		return
	}

	buffered := client.AppendAudio(chunk)
	state.ChunkCount++
	if err := h.store.Set(ctx, client.ID, state); err != nil {
		h.logger.Warn("failed to update chunk count", zap.Error(err))
	}

	if state.ChunkCount%partialTranscribeEvery != 0 {
		return
	}
	// Best effort; a failed partial is silently dropped.
	text, err := h.provider.TranscribeAudio(ctx, buffered, audioMIMEType)
	if err != nil {
		h.logger.Debug("partial transcription failed",
			zap.String("sessionId", state.SessionID), zap.Error(err))
		return
	}
	client.Send(WSFrame{Type: "transcription_partial", Data: map[string]string{"text": text}})
}

func (h *Handler) handleEndAudio(ctx context.Context, client *Client) {
	state, err := h.store.Get(ctx, client.ID)
	if err != nil || state.SessionID == "" {
		client.Send(errFrame("join a session before streaming audio"))
		return
	}

	audio := client.TakeAudio()
	state.ChunkCount = 0
	if err := h.store.Set(ctx, client.ID, state); err != nil {
		h.logger.Warn("failed to reset chunk count", zap.Error(err))
	}
	if len(audio) == 0 {
		client.Send(errFrame("no audio buffered"))
		return
	}

	key := fmt.Sprintf("sessions/%s/%s.webm", state.SessionID, uuid.New().String())
	audioURL, err := h.objects.Put(ctx, key, audio, audioMIMEType)
	if err != nil {
		h.logger.Error("failed to store answer audio",
			zap.String("sessionId", state.SessionID), zap.Error(err))
		client.Send(errFrame("failed to store audio"))
		return
	}

	text, err := h.provider.TranscribeAudio(ctx, audio, audioMIMEType)
	if err != nil {
		client.Send(errFrame("transcription failed"))
		return
	}

	// Other connections on the same session (a second tab, an observer)
	// follow along through the room.
	room := h.hub.GetOrCreate(state.SessionID)
	transcription := WSFrame{Type: "transcription", Data: map[string]string{"text": text}}
	client.Send(transcription)
	room.Broadcast(client, transcription)

	answer, err := h.orchestrator.SubmitAnswer(ctx, state.UserID, state.SessionID, &models.SubmitAnswerRequest{
		Content:  text,
		AudioURL: &audioURL,
	})
	if err != nil {
		client.Send(errFrame("failed to submit answer"))
		return
	}

	if answer.IsCompleted {
		completed := WSFrame{Type: "interview_completed"}
		client.Send(completed)
		room.Broadcast(client, completed)
		return
	}

	response := WSFrame{Type: "ai_response", Data: answer.NextQuestion}
	client.Send(response)
	room.Broadcast(client, response)
	h.sendQuestionAudio(ctx, client, state, answer.NextQuestion.Question)
}

// sendQuestionAudio synthesizes the next question when the session chose a
// voice. Synthesis failures only cost the audio, never the text.
func (h *Handler) sendQuestionAudio(ctx context.Context, client *Client, state ConnState, question string) {
	sess, err := h.orchestrator.GetState(ctx, state.UserID, state.SessionID)
	if err != nil || sess.Session.VoiceID == nil {
		return
	}
	speech, err := h.voices.Synthesize(ctx, question, *sess.Session.VoiceID)
	if err != nil {
		h.logger.Warn("question synthesis failed",
			zap.String("sessionId", state.SessionID), zap.Error(err))
		return
	}
	client.Send(WSFrame{Type: "ai_audio", Data: map[string]int{"bytes": len(speech)}})
	client.SendBinary(speech)
}

func errFrame(msg string) WSFrame {
	return WSFrame{Type: "error", Data: msg}
}

func remarshal(data any, out any) {
	b, err := json.Marshal(data)
	if err != nil {
		return
	}
	_ = json.Unmarshal(b, out)
}
