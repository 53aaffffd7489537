package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"jee-exam-service/internal/app"
	"jee-exam-service/internal/domain"
)

// WSHandler drives one attempt over a websocket: start or resume a
// submission, answer questions, then finalize.
type WSHandler struct {
	service  *app.ExamService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewWSHandler(service *app.ExamService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.Named("ws"),
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	PaperID string `json:"paperId"`
}

type resumePayload struct {
	SubmissionID string `json:"submissionId"`
}

type answerPayload struct {
	QuestionID       string  `json:"questionId"`
	SelectedOptionID *string `json:"selectedOptionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// attempt is the per-connection state: the submission being worked on.
type attempt struct {
	userID       string
	submissionID string
}

// ServeWS upgrades HTTP requests to websockets and wires them into the exam use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		userID = r.URL.Query().Get("userId")
	}
	if userID == "" {
		http.Error(w, "missing user id", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	state := &attempt{userID: userID}
	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		msgType, payload, err := h.dispatch(ctx, state, inbound)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: statusFor(err)}}
			continue
		}
		send <- outboundMessage[any]{Type: msgType, Payload: payload}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, state *attempt, inbound inboundMessage) (string, any, error) {
	switch inbound.Type {
	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.PaperID == "" {
			return "", nil, errBadRequest
		}
		started, err := h.service.StartSubmission(ctx, state.userID, payload.PaperID)
		if err != nil {
			return "", nil, err
		}
		state.submissionID = started.SubmissionID
		return "started", started, nil

	case "resume":
		var payload resumePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.SubmissionID == "" {
			return "", nil, errBadRequest
		}
		sub, err := h.service.GetSubmission(ctx, payload.SubmissionID)
		if err != nil {
			return "", nil, err
		}
		if sub.UserID != state.userID {
			return "", nil, errNotOwner
		}
		state.submissionID = sub.ID
		return "resumed", sub, nil

	case "answer":
		if state.submissionID == "" {
			return "", nil, domain.ErrSubmissionNotFound
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
			return "", nil, errBadRequest
		}
		answer, err := h.service.SubmitAnswer(ctx, state.submissionID, payload.QuestionID, payload.SelectedOptionID)
		if err != nil {
			return "", nil, err
		}
		return "answerResult", answer, nil

	case "finalize":
		if state.submissionID == "" {
			return "", nil, domain.ErrSubmissionNotFound
		}
		sub, err := h.service.FinalizeSubmission(ctx, state.submissionID)
		if err != nil {
			return "", nil, err
		}
		return "finalized", sub, nil
	}
	return "", nil, errUnsupportedMessage
}
