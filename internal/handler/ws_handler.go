package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/middleware"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/service"
	ws "github.com/invigo/invigo-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler handles the live attempt stream: low-latency answer recording,
// proctoring violation reports, and final submission over one connection.
type WSHandler struct {
	rdb            *redis.Client
	attemptService *service.AttemptService
	violationLimit int
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, attemptService *service.AttemptService, violationLimit int, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		attemptService: attemptService,
		violationLimit: violationLimit,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/attempts/:attempt_id/stream
// Upgrades to WebSocket for the duration of an attempt.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt ID"})
		return
	}

	attempt, err := h.attemptService.VerifyActiveAttempt(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no active attempt"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	questionCount := len(attempt.Questions)

	for {
		envelope, raw, err := ws.ReadEnvelope(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch envelope.Action {
		case ws.ActionAnswer:
			h.handleAnswer(conn, wsLog, attemptID, questionCount, raw)
		case ws.ActionCheckpoint:
			h.handleCheckpoint(conn, wsLog, attemptID, raw)
		case ws.ActionViolation:
			if done := h.handleViolation(conn, wsLog, attemptID, claims.UserID, raw); done {
				return
			}
		case ws.ActionSubmit:
			h.handleSubmit(conn, wsLog, attemptID, raw)
			return
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(envelope.Action))
		}
	}
}

// handleAnswer records one answer in Redis and queues it for persistence.
func (h *WSHandler) handleAnswer(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, questionCount int, raw []byte) {
	ctx := context.Background()

	var msg ws.AnswerRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "malformed answer payload")
		return
	}
	if msg.Position < 0 || msg.Position >= questionCount {
		ws.WriteError(conn, "question position out of range")
		return
	}
	if msg.SelectedOption < 0 {
		ws.WriteError(conn, "invalid option")
		return
	}

	answersKey := config.CacheKey.AttemptAnswersKey(attemptID.String())
	if err := h.rdb.HSet(ctx, answersKey, msg.Position, msg.SelectedOption).Err(); err != nil {
		wsLog.Error().Err(err).Msg("Answer Redis error")
		ws.WriteError(conn, "save failed")
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"attempt_id":      attemptID.String(),
		"position":        msg.Position,
		"selected_option": msg.SelectedOption,
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)

	ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventSuccess, Status: "saved"})
}

// handleCheckpoint persists the full in-progress state synchronously.
func (h *WSHandler) handleCheckpoint(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, raw []byte) {
	var msg ws.CheckpointRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "malformed checkpoint payload")
		return
	}

	answers := model.AnswerMap(msg.Answers)
	if err := h.attemptService.Checkpoint(context.Background(), attemptID, answers, msg.TimeLeftSeconds); err != nil {
		if errors.Is(err, service.ErrAttemptNotActive) {
			ws.WriteError(conn, "attempt is no longer in progress")
			return
		}
		wsLog.Error().Err(err).Msg("Checkpoint error")
		ws.WriteError(conn, "checkpoint failed")
		return
	}

	ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventSuccess, Status: "checkpointed"})
}

// handleViolation counts a proctoring event and queues it for persistence.
// Hitting the limit force-submits the attempt; the return value tells the
// caller to end the stream.
func (h *WSHandler) handleViolation(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, userID int, raw []byte) bool {
	ctx := context.Background()

	var msg ws.ViolationRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "malformed violation payload")
		return false
	}
	if msg.Kind == "" {
		ws.WriteError(conn, "kind is required")
		return false
	}

	count, err := h.rdb.Incr(ctx, config.CacheKey.AttemptViolationsKey(attemptID.String())).Result()
	if err != nil {
		wsLog.Error().Err(err).Msg("Violation counter error")
		ws.WriteError(conn, "violation not recorded")
		return false
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"attempt_id": attemptID.String(),
		"user_id":    userID,
		"kind":       msg.Kind,
		"count":      count,
		"timestamp":  time.Now().Unix(),
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload)

	wsLog.Warn().
		Str("kind", msg.Kind).
		Int64("count", count).
		Msg("Violation recorded")

	if int(count) < h.violationLimit {
		ws.WriteTyped(conn, ws.WarningResponse{
			Event:     ws.EventWarning,
			Count:     int(count),
			Remaining: h.violationLimit - int(count),
		})
		return false
	}

	// Limit reached: force-submit. The live answer hash may hold acked
	// answers the persistence worker has not drained into the row yet, so
	// read it back and overlay it on the checkpointed set before grading.
	ws.WriteTyped(conn, ws.WarningResponse{Event: ws.EventAutoSubmit, Count: int(count)})

	attempt, err := h.attemptService.Submit(ctx, attemptID, h.collectAnswers(ctx, attemptID), time.Now(), nil, int(count))
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			h.clearLiveState(ctx, attemptID)
		} else {
			wsLog.Error().Err(err).Msg("Forced submit failed")
			ws.WriteError(conn, "submission failed")
		}
		return true
	}

	h.clearLiveState(ctx, attemptID)
	h.sendGraded(conn, wsLog, attempt)
	return true
}

// collectAnswers builds the full answer set for a forced submit: the
// checkpointed answers from the attempt row overlaid with the live buffer.
func (h *WSHandler) collectAnswers(ctx context.Context, attemptID uuid.UUID) model.AnswerMap {
	live := h.liveAnswers(ctx, attemptID)
	attempt, err := h.attemptService.GetAttempt(ctx, attemptID)
	if err != nil {
		return live
	}
	return overlayAnswers(attempt.Answers, live)
}

// liveAnswers reads back the low-latency answer buffer for the attempt.
func (h *WSHandler) liveAnswers(ctx context.Context, attemptID uuid.UUID) model.AnswerMap {
	fields, err := h.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String())).Result()
	if err != nil {
		h.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Live answer read failed")
		return nil
	}
	return answersFromHash(fields)
}

// clearLiveState drops the per-attempt Redis keys once the attempt is
// terminal. The persistence queues keep their own copies, so nothing is lost.
func (h *WSHandler) clearLiveState(ctx context.Context, attemptID uuid.UUID) {
	pipe := h.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(attemptID.String()))
	pipe.Del(ctx, config.CacheKey.AttemptViolationsKey(attemptID.String()))
	if _, err := pipe.Exec(ctx); err != nil {
		h.log.Warn().Err(err).Str("attempt_id", attemptID.String()).Msg("Live state cleanup failed")
	}
}

// answersFromHash converts a Redis hash of position → option into an
// AnswerMap, skipping fields that do not parse.
func answersFromHash(fields map[string]string) model.AnswerMap {
	if len(fields) == 0 {
		return nil
	}
	answers := make(model.AnswerMap, len(fields))
	for field, value := range fields {
		pos, perr := strconv.Atoi(field)
		opt, verr := strconv.Atoi(value)
		if perr != nil || verr != nil {
			continue
		}
		answers[pos] = opt
	}
	if len(answers) == 0 {
		return nil
	}
	return answers
}

// overlayAnswers returns base with overlay's entries applied on top.
// Returns base untouched when the overlay is empty.
func overlayAnswers(base, overlay model.AnswerMap) model.AnswerMap {
	if len(overlay) == 0 {
		return base
	}
	merged := make(model.AnswerMap, len(base)+len(overlay))
	for pos, opt := range base {
		merged[pos] = opt
	}
	for pos, opt := range overlay {
		merged[pos] = opt
	}
	return merged
}

// handleSubmit finalizes the attempt and reports the grade.
func (h *WSHandler) handleSubmit(conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, raw []byte) {
	var msg ws.SubmitRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		ws.WriteError(conn, "malformed submit payload")
		return
	}

	var clientEnd *time.Time
	if msg.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, msg.EndTime); err == nil {
			clientEnd = &t
		}
	}

	ctx := context.Background()
	attempt, err := h.attemptService.Submit(ctx, attemptID, model.AnswerMap(msg.Answers), time.Now(), clientEnd, msg.ViolationCount)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			h.clearLiveState(ctx, attemptID)
			ws.WriteError(conn, "attempt already submitted")
			return
		}
		wsLog.Error().Err(err).Msg("Submit error")
		ws.WriteError(conn, "submission failed")
		return
	}

	h.clearLiveState(ctx, attemptID)
	h.sendGraded(conn, wsLog, attempt)
}

func (h *WSHandler) sendGraded(conn *websocket.Conn, wsLog zerolog.Logger, attempt *model.Attempt) {
	var score, marks float64
	if attempt.Score != nil {
		score = *attempt.Score
	}
	if attempt.TotalMarksObtained != nil {
		marks = *attempt.TotalMarksObtained
	}

	wsLog.Info().
		Float64("score", score).
		Int("violations", attempt.ViolationCount).
		Msg("Attempt graded over stream")

	ws.WriteTyped(conn, ws.GradedResponse{
		Event:              ws.EventGraded,
		Status:             "completed",
		Score:              score,
		TotalMarksObtained: marks,
		ViolationCount:     attempt.ViolationCount,
	})
}
