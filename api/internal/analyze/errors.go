package analyze

import "fmt"

// User-facing messages. Transport details never leak into them.
const (
	MsgNoInput      = "No input provided - please enter text or upload a file"
	MsgSubmitFailed = "Failed to submit math problem. Please try again later."
)

var (
	ErrNoInput          = fmt.Errorf("no input provided")
	ErrUnexpectedStatus = fmt.Errorf("unexpected status")
	ErrBadResponse      = fmt.Errorf("bad response body")
)
