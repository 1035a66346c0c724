package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/laneboard/internal/broadcast"
	"github.com/gosuda/laneboard/internal/domain"
	"github.com/gosuda/laneboard/internal/kanban"
	"github.com/gosuda/laneboard/internal/stream"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 10 * time.Second
)

var (
	// ErrMoveRejected means the server refused a move; the view was reverted.
	ErrMoveRejected = errors.New("client: move rejected")
	// ErrSubscriptionRejected means the stream handshake was refused.
	ErrSubscriptionRejected = errors.New("client: subscription rejected")
)

// Agent is one viewer session on one board.
type Agent struct {
	baseURL     string
	accessToken string
	http        *http.Client

	boardID     uuid.UUID
	streamToken string
	view        *View
}

// NewAgent creates a session against the server at baseURL, e.g.
// "http://localhost:8080", authenticated with accessToken.
func NewAgent(baseURL, accessToken string, httpClient *http.Client) *Agent {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Agent{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		http:        httpClient,
	}
}

// View returns the session's board model. It is nil until Open succeeds.
func (a *Agent) View() *View {
	return a.view
}

// Open loads a board and keeps its signed stream name for Listen.
func (a *Agent) Open(ctx context.Context, boardID uuid.UUID) (*kanban.BoardView, error) {
	var bv kanban.BoardView
	path := fmt.Sprintf("%s/boards/%s", apiPrefix, boardID)
	if err := a.do(ctx, http.MethodGet, path, nil, &bv); err != nil {
		return nil, fmt.Errorf("client.Agent.Open: %w", err)
	}

	a.boardID = boardID
	a.streamToken = bv.StreamToken
	a.view = NewView(BoardEndpoints(apiPrefix, boardID))
	a.view.Load(SwimlanesFragment(bv.Swimlanes))
	return &bv, nil
}

// SwimlanesFragment renders a loaded board the same way change events do.
func SwimlanesFragment(lanes []*kanban.SwimlaneView) broadcast.Fragment {
	swimlanes := make([]*domain.Swimlane, 0, len(lanes))
	cards := make(map[uuid.UUID][]*domain.Card, len(lanes))
	for _, l := range lanes {
		s := l.Swimlane
		swimlanes = append(swimlanes, &s)
		cards[s.ID] = l.Cards
	}
	return broadcast.SwimlanesFragment(swimlanes, cards)
}

// Drop moves itemID into container to at index. The view changes at once;
// the move is then sent to the destination container's endpoint, and undone
// if the request fails.
func (a *Agent) Drop(ctx context.Context, itemID, to string, index int) error {
	if a.view == nil {
		return fmt.Errorf("client.Agent.Drop: %w", ErrUnknownContainer)
	}
	ep, err := a.view.endpoint(to)
	if err != nil {
		return fmt.Errorf("client.Agent.Drop: %w", err)
	}
	n, ok := a.view.Node(itemID)
	if !ok {
		return fmt.Errorf("client.Agent.Drop %q: %w", itemID, ErrUnknownItem)
	}

	from, fromIndex, err := a.view.move(itemID, to, index)
	if err != nil {
		return fmt.Errorf("client.Agent.Drop: %w", err)
	}

	_, placed, _ := a.view.Locate(itemID)
	body := map[string]any{ep.ItemField: n.EntityID, "position": placed}
	if err := a.do(ctx, http.MethodPatch, ep.Path, body, nil); err != nil {
		if _, _, revertErr := a.view.move(itemID, from, fromIndex); revertErr != nil {
			log.Warn().Err(revertErr).Str("item", itemID).Msg("revert move")
		}
		return fmt.Errorf("client.Agent.Drop: %w: %w", ErrMoveRejected, err)
	}
	return nil
}

// Listen subscribes to the open board's stream at wsURL, e.g.
// "ws://localhost:8080/ws/board", and applies events to the view until ctx
// is done or the connection ends.
func (a *Agent) Listen(ctx context.Context, wsURL string) error {
	if a.view == nil {
		return fmt.Errorf("client.Agent.Listen: board not open")
	}

	u, err := url.Parse(wsURL)
	if err != nil {
		return fmt.Errorf("client.Agent.Listen: parse url: %w", err)
	}
	q := u.Query()
	q.Set("access_token", a.accessToken)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("client.Agent.Listen: dial: %w", err)
	}
	defer conn.CloseNow()

	cmd := stream.Command{Command: stream.CommandSubscribe, SignedStreamName: a.streamToken}
	if err := wsjson.Write(ctx, conn, cmd); err != nil {
		return fmt.Errorf("client.Agent.Listen: subscribe: %w", err)
	}
	var reply stream.Reply
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		return fmt.Errorf("client.Agent.Listen: handshake: %w", err)
	}
	if reply.Type != stream.TypeConfirmSubscription {
		return fmt.Errorf("client.Agent.Listen: %w", ErrSubscriptionRejected)
	}

	log.Debug().Str("board_id", a.boardID.String()).Msg("stream subscribed")

	for {
		var ev broadcast.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("client.Agent.Listen: read: %w", err)
		}
		if err := a.view.Apply(ev); err != nil {
			log.Warn().Err(err).Str("target", ev.Target).Msg("apply board event")
		}
	}
}

func (a *Agent) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.accessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
