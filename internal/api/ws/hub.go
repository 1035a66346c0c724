package ws

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/laneboard/internal/server/middleware"
	"github.com/gosuda/laneboard/internal/stream"
)

const writeTimeout = 10 * time.Second

// Attacher registers subscribed connections on their board's topic.
// *stream.Registry satisfies this interface.
type Attacher interface {
	Attach(ctx context.Context, sub *stream.Subscription) (*stream.Listener, error)
	Detach(l *stream.Listener)
}

// Hub serves board streams over WebSocket.
type Hub struct {
	registry         Attacher
	verifier         stream.Verifier
	gate             stream.Gate
	handshakeTimeout time.Duration
	originPatterns   []string
}

// NewHub creates a hub. A connection that has not completed the subscribe
// handshake within handshakeTimeout is rejected.
func NewHub(registry Attacher, verifier stream.Verifier, gate stream.Gate, handshakeTimeout time.Duration, originPatterns []string) *Hub {
	return &Hub{
		registry:         registry,
		verifier:         verifier,
		gate:             gate,
		handshakeTimeout: handshakeTimeout,
		originPatterns:   originPatterns,
	}
}

// OriginHosts converts allowed browser origins such as
// "https://app.example.com" into the host patterns the upgrader matches.
// Entries without a scheme are kept as is.
func OriginHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
			continue
		}
		hosts = append(hosts, o)
	}
	return hosts
}

// ServeBoard upgrades an authenticated request, runs the subscribe handshake,
// and then forwards the board's change events until either side goes away.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	sub := stream.NewSubscription(userID)

	if !h.handshake(ctx, conn, sub) {
		return
	}

	listener, err := h.registry.Attach(ctx, sub)
	if err != nil {
		log.Error().Err(err).Str("board_id", sub.BoardID().String()).Msg("websocket attach")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer h.registry.Detach(listener)

	if err := h.reply(ctx, conn, stream.TypeConfirmSubscription); err != nil {
		log.Debug().Err(err).Msg("websocket write")
		return
	}

	log.Debug().
		Str("board_id", sub.BoardID().String()).
		Str("user_id", userID.String()).
		Msg("stream subscribed")

	// Clients only listen after the handshake; CloseRead handles control
	// frames and cancels ctx when the peer disconnects.
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-listener.Events():
			if !msgOK {
				_ = conn.Close(websocket.StatusGoingAway, "stream closed")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			writeErr := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

// handshake reads the subscribe command and resolves the subscription. On
// rejection, including handshake expiry, it notifies the client and closes
// the connection.
func (h *Hub) handshake(ctx context.Context, conn *websocket.Conn, sub *stream.Subscription) bool {
	type readResult struct {
		cmd stream.Command
		err error
	}
	// Canceling a read closes the connection, so the deadline is enforced
	// here rather than on the read context.
	read := make(chan readResult, 1)
	go func() {
		var res readResult
		res.err = wsjson.Read(ctx, conn, &res.cmd)
		read <- res
	}()

	timer := time.NewTimer(h.handshakeTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		sub.Expire()
	case res := <-read:
		if res.err != nil {
			log.Debug().Err(res.err).Msg("websocket handshake read")
			return false
		}
		token := res.cmd.SignedStreamName
		if res.cmd.Command != stream.CommandSubscribe {
			token = ""
		}
		if err := sub.Present(token); err == nil {
			_ = sub.Resolve(ctx, h.verifier, h.gate)
		}
	}

	if sub.State() == stream.Subscribed {
		return true
	}

	log.Info().
		Err(sub.Reason()).
		Str("user_id", sub.UserID().String()).
		Msg("stream subscription rejected")

	if err := h.reply(ctx, conn, stream.TypeRejectSubscription); err != nil {
		log.Debug().Err(err).Msg("websocket write")
	}
	_ = conn.Close(websocket.StatusPolicyViolation, "subscription rejected")
	return false
}

func (h *Hub) reply(ctx context.Context, conn *websocket.Conn, typ string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, stream.Reply{Type: typ})
}
