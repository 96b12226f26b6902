package message

import (
	"github.com/FACorreiaa/go-messagely/internal/api"
)

// Guard predicates are pure and advisory: they never error, and the caller
// is responsible for turning a false answer into an unauthorized failure.

// CanReadMessage reports whether the identity is either party of the message.
func CanReadMessage(identity api.Identity, m *Message) bool {
	if m == nil {
		return false
	}
	return identity.Username == m.FromUser.Username || identity.Username == m.ToUser.Username
}

// CanMarkRead reports whether the identity is the recipient. The sender may
// never mark their own sent message read.
func CanMarkRead(identity api.Identity, m *Message) bool {
	if m == nil {
		return false
	}
	return identity.Username == m.ToUser.Username
}
