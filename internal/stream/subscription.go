// Package stream implements per-board publish/subscribe topics with an
// authorization-gated subscription handshake.
package stream

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/laneboard/internal/domain"
)

// State is the lifecycle position of one connection's subscription.
type State int

const (
	Unsubscribed State = iota
	Pending
	Subscribed
	Rejected
)

func (s State) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case Pending:
		return "pending"
	case Subscribed:
		return "subscribed"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrRejected wraps every reason a pending subscription was refused.
	ErrRejected = errors.New("stream: subscription rejected")
	// ErrInvalidTransition is returned when an event does not apply to the
	// current state, e.g. presenting a second token.
	ErrInvalidTransition = errors.New("stream: invalid state transition")

	errUnauthenticated = errors.New("connection is not authenticated")
	errHandshakeExpiry = errors.New("handshake window expired")
)

// Verifier checks a signed stream token and returns the stream name it was
// issued for. *auth.StreamSigner satisfies this interface.
type Verifier interface {
	Verify(token string) (string, error)
}

// Gate decides whether a user may watch a board. It must return an error
// when the board does not exist or the user holds no membership on it.
type Gate interface {
	AuthorizeViewer(ctx context.Context, boardID, userID uuid.UUID) error
}

// Subscription is the state machine for a single connection:
//
//	Unsubscribed -> Pending(token) -> Subscribed | Rejected
//
// Subscribed and Rejected are terminal; a reconnect starts a new
// Subscription. Authorization is evaluated once, when the token is resolved,
// so a later membership removal does not evict a subscribed connection.
type Subscription struct {
	userID  uuid.UUID
	state   State
	token   string
	boardID uuid.UUID
	reason  error
}

// NewSubscription starts a subscription for userID. uuid.Nil denotes an
// unauthenticated connection, which can never be subscribed.
func NewSubscription(userID uuid.UUID) *Subscription {
	return &Subscription{userID: userID, state: Unsubscribed}
}

func (s *Subscription) State() State       { return s.state }
func (s *Subscription) UserID() uuid.UUID  { return s.userID }
func (s *Subscription) BoardID() uuid.UUID { return s.boardID }
func (s *Subscription) Reason() error      { return s.reason }

// Present records the client's signed token and moves to Pending.
func (s *Subscription) Present(token string) error {
	if s.state != Unsubscribed {
		return fmt.Errorf("stream.Subscription.Present: %s: %w", s.state, ErrInvalidTransition)
	}
	s.token = token
	s.state = Pending
	return nil
}

// Resolve verifies the pending token and checks membership, moving to
// Subscribed or Rejected. The returned error wraps ErrRejected on rejection.
func (s *Subscription) Resolve(ctx context.Context, verifier Verifier, gate Gate) error {
	if s.state != Pending {
		return fmt.Errorf("stream.Subscription.Resolve: %s: %w", s.state, ErrInvalidTransition)
	}

	if s.userID == uuid.Nil {
		return s.reject(errUnauthenticated)
	}

	name, err := verifier.Verify(s.token)
	if err != nil {
		return s.reject(err)
	}

	boardID, err := domain.ParseBoardGlobalID(name)
	if err != nil {
		return s.reject(err)
	}

	if err := gate.AuthorizeViewer(ctx, boardID, s.userID); err != nil {
		return s.reject(err)
	}

	s.boardID = boardID
	s.state = Subscribed
	return nil
}

// Expire rejects a subscription still pending when the handshake window
// closes. It is a no-op in any other state.
func (s *Subscription) Expire() {
	if s.state == Pending || s.state == Unsubscribed {
		_ = s.reject(errHandshakeExpiry)
	}
}

func (s *Subscription) reject(reason error) error {
	s.state = Rejected
	s.reason = reason
	s.token = ""
	return fmt.Errorf("%w: %w", ErrRejected, reason)
}
