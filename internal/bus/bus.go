// Package bus provides room-scoped publish/subscribe fan-out for
// collaboration notifications.
package bus

// Notification is a single event delivered to a room.
type Notification struct {
	Room    string
	Event   string
	Payload any
}

// Bus is the fan-out abstraction the collaboration engine broadcasts
// through. Implementations must not block the caller; delivery is
// best-effort.
type Bus interface {
	BroadcastToRoom(room, event string, payload any)
}

// SessionRoom returns the room name for a session's listeners.
func SessionRoom(sessionID string) string {
	return "session:" + sessionID
}

// UserRoom returns the room name for a user's personal listeners.
func UserRoom(userID string) string {
	return "user:" + userID
}
