package stream

// Wire messages of the board stream handshake. After confirmation the server
// sends serialized change events as text frames.

const (
	CommandSubscribe = "subscribe"

	TypeConfirmSubscription = "confirm_subscription"
	TypeRejectSubscription  = "reject_subscription"
)

// Command is the client's handshake frame.
type Command struct {
	Command          string `json:"command"`
	SignedStreamName string `json:"signed_stream_name"`
}

// Reply is the server's answer to a Command.
type Reply struct {
	Type string `json:"type"`
}
