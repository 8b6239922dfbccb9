package domain

import "context"

type sessionKey struct{}

// Session is the authenticated caller of a request. The key is forwarded to
// the search backend on round-trips made on the caller's behalf.
type Session struct {
	Key string
}

// ContextWithSession returns a context carrying the session.
func ContextWithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext extracts the session. ok is false when none was set.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
