// internal/intent/conversation.go
package intent

import (
	"fmt"
	"strings"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is a single message of the conversation.
type Turn struct {
	Role Role
	Text string
}

// Conversation is the recent message history threaded through one pipeline
// pass. It is immutable: components read it, nobody appends to a shared copy.
type Conversation []Turn

// Window returns the last n turns. Confirmation classification deliberately
// looks at a bounded window, not the full history.
func (c Conversation) Window(n int) Conversation {
	if n <= 0 || len(c) <= n {
		return c
	}
	return c[len(c)-n:]
}

// LastUserText returns the text of the most recent user turn, or "".
func (c Conversation) LastUserText() string {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].Role == RoleUser {
			return c[i].Text
		}
	}
	return ""
}

// Transcript renders the conversation for inclusion in an extraction prompt.
func (c Conversation) Transcript() string {
	var b strings.Builder
	for _, turn := range c {
		speaker := "User1"
		if turn.Role == RoleAgent {
			speaker = "User2"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, turn.Text)
	}
	return b.String()
}
