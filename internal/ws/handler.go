package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/tierlist-backend/internal/engine"
	"github.com/DoyleJ11/tierlist-backend/internal/session"
	"github.com/DoyleJ11/tierlist-backend/internal/types"
)

const (
	outboxSize   = 32
	writeTimeout = 3 * time.Second
	readTimeout  = 10 * time.Minute
)

type Options struct {
	// OriginPatterns is passed to websocket.Accept; empty means same origin only.
	OriginPatterns []string
	Logger         *zap.Logger
}

func Handler(s *session.Session, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Info("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan any, outboxSize)
		clientID := uuid.NewString()

		select {
		case s.Inbox() <- session.Join{ClientID: clientID, Outbox: out}:
		case <-s.Done():
			conn.Close(websocket.StatusGoingAway, "session closed")
			return
		}
		defer func() {
			select {
			case s.Inbox() <- session.Leave{ClientID: clientID}:
			case <-s.Done():
			}
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for {
				select {
				case <-writeCtx.Done():
					return
				case msg, ok := <-out:
					if !ok {
						// The session dropped us or shut down.
						conn.Close(websocket.StatusGoingAway, "session closed")
						return
					}
					payload, err := json.Marshal(msg)
					if err != nil {
						log.Warn("encode broadcast", zap.Error(err))
						continue
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					_ = conn.Write(ctx, websocket.MessageText, payload)
					cancel()
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.String("client", clientID), zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			cmd, reason := toCommand(cm)
			if reason != "" {
				writeError(r.Context(), conn, reason)
				continue
			}

			select {
			case s.Inbox() <- session.FromClient{ClientID: clientID, Cmd: cmd}:
			case <-s.Done():
				return
			}
		}
	}
}

// toCommand maps a client message onto a session command. A non-empty reason
// means the message could not be mapped.
func toCommand(m types.ClientMessage) (session.Command, string) {
	switch m.Type {
	case types.TypeJoin:
		return session.Command{Action: engine.ActionJoin}, ""
	case types.TypeStart:
		return session.Command{Action: engine.ActionStart}, ""
	case types.TypeNext:
		return session.Command{Action: engine.ActionNext}, ""
	case types.TypeShowFinalResults:
		return session.Command{Action: engine.ActionShowFinalResults}, ""
	case types.TypeReturnToMenu:
		return session.Command{Action: engine.ActionReturnToMenu}, ""
	case types.TypeVote:
		if m.Person == nil || m.Person.Name == "" {
			return session.Command{}, "vote needs a person"
		}
		// Tier validity is left to the aggregator.
		return session.Command{Action: engine.ActionVote, Tier: engine.Tier(m.Selection), Person: *m.Person}, ""
	default:
		return session.Command{}, "unknown type"
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, reason string) {
	payload, _ := json.Marshal(types.ErrorMessage{Type: types.TypeError, Error: reason})
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
