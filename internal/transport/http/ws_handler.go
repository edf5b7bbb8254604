package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ranczo-quiz/internal/app"
	"ranczo-quiz/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSHandler lets a UI drive the engine over a websocket. Every connection
// sees the same single-user engine; state changes are pushed to all of them.
type WSHandler struct {
	engine   *app.Engine
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

func NewWSHandler(engine *app.Engine, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		engine: engine,
		log:    log.WithField("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
	FansOnly bool            `json:"fansOnly"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Selected   []int  `json:"selected"`
}

type reviewPayload struct {
	EntryID string `json:"entryId"`
}

type answerResult struct {
	QuestionID     string `json:"questionId"`
	Correct        bool   `json:"correct"`
	CorrectAnswers []int  `json:"correctAnswers"`
	Explanation    string `json:"explanation"`
	RunningScore   int    `json:"runningScore"`
}

type finishResult struct {
	app.Outcome
	ShareText string `json:"shareText"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the engine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := h.engine.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.WithError(err).Debug("ws write failed")
				failed = true
				_ = conn.Close()
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "progress", Payload: h.engine.Progress()}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if reply, ok := h.handle(r, inbound); ok {
			send <- reply
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handle runs one inbound command. State changes reach the client through
// the subscription, so only direct results are replied.
func (h *WSHandler) handle(r *http.Request, in inboundMessage) (outboundMessage[any], bool) {
	ctx := r.Context()
	switch in.Type {
	case "startDaily":
		_, err := h.engine.StartDaily(ctx)
		return replyErr(err)
	case "startRandom", "startCategory":
		var p startPayload
		if len(in.Payload) > 0 {
			if err := json.Unmarshal(in.Payload, &p); err != nil {
				return errorMessage("bad_request", "invalid start payload"), true
			}
		}
		opts := app.StartOptions{Count: p.Count, FansOnly: p.FansOnly}
		var err error
		if in.Type == "startCategory" {
			_, err = h.engine.StartCategory(ctx, p.Category, opts)
		} else {
			_, err = h.engine.StartRandom(ctx, opts)
		}
		return replyErr(err)
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("bad_request", "invalid answer payload"), true
		}
		correct, err := h.engine.Answer(p.QuestionID, p.Selected)
		if err != nil {
			return replyErr(err)
		}
		snap := h.engine.Snapshot()
		res := answerResult{QuestionID: p.QuestionID, Correct: correct, RunningScore: snap.RunningScore}
		if snap.Current != nil && snap.Current.ID == p.QuestionID {
			res.CorrectAnswers = snap.Current.CorrectAnswers
			res.Explanation = snap.Current.Explanation
		}
		return outboundMessage[any]{Type: "answerResult", Payload: res}, true
	case "next":
		_, err := h.engine.Next()
		return replyErr(err)
	case "finish":
		out, err := h.engine.Finish(ctx)
		if err != nil {
			return replyErr(err)
		}
		daily := out.Mode == domain.ModeDaily
		return outboundMessage[any]{Type: "outcome", Payload: finishResult{
			Outcome:   out,
			ShareText: h.engine.ShareText(out, daily),
		}}, true
	case "reset":
		h.engine.Reset()
		return outboundMessage[any]{}, false
	case "review":
		var p reviewPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return errorMessage("bad_request", "invalid review payload"), true
		}
		_, err := h.engine.Review(p.EntryID)
		return replyErr(err)
	case "progress":
		return outboundMessage[any]{Type: "progress", Payload: h.engine.Progress()}, true
	default:
		return errorMessage("unsupported", "unsupported message type"), true
	}
}

func replyErr(err error) (outboundMessage[any], bool) {
	if err == nil {
		return outboundMessage[any]{}, false
	}
	return errorMessage(errorCode(err), err.Error()), true
}

func errorMessage(code, msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: msg}}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrDailyAlreadyCompleted):
		return "daily_completed"
	case errors.Is(err, domain.ErrSessionNotActive):
		return "session_not_active"
	case errors.Is(err, domain.ErrAnswerRequired):
		return "answer_required"
	case errors.Is(err, domain.ErrNoMoreQuestions):
		return "no_more_questions"
	case errors.Is(err, domain.ErrQuestionNotInSession):
		return "unknown_question"
	case errors.Is(err, domain.ErrHistoryEntryNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidCategory), errors.Is(err, domain.ErrInvalidQuestionCount), errors.Is(err, domain.ErrInvalidFontScale):
		return "bad_request"
	default:
		return "internal"
	}
}
