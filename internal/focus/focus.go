// Package focus pauses other audio for the duration of a capture session,
// best effort. Nothing in here ever fails capture: a denied or unsupported
// platform just means the user's music keeps playing under the recording.
package focus

// Token represents one focus grant. It records what was paused so Abandon
// can undo exactly that. A nil Token is a valid no-grant.
type Token struct {
	players []string
}

// Coordinator acquires and releases audio focus around a session.
//
// Request never fails; at worst it returns a token that pauses nothing.
// Every Request first abandons any grant still held from a previous
// session, so a crashed or leaked session cannot pin other players paused.
// Abandon accepts nil and is idempotent per token.
type Coordinator interface {
	Request() *Token
	Abandon(*Token)
}

type noopCoordinator struct{}

func (noopCoordinator) Request() *Token { return nil }
func (noopCoordinator) Abandon(*Token) {}

// Noop returns a Coordinator that grants nothing. Used when the session
// config has pausing disabled and in tests.
func Noop() Coordinator {
	return noopCoordinator{}
}
