package catalog

import "encoding/json"

// SessionKey is the fixed storage key the authentication layer writes the
// active session blob to. The catalog only reads it.
const SessionKey = "session"

// AnonymousUser is the scope used when no valid session is present.
const AnonymousUser = "anonymous"

// sessionBlob is the subset of the session JSON the catalog cares about.
type sessionBlob struct {
	Username string `json:"username"`
}

// CurrentUsername reads the session blob from storage and returns its
// username. It never fails: an absent key, unparsable JSON, or an empty
// username all degrade to AnonymousUser.
func CurrentUsername(storage Storage) string {
	raw, ok := storage.Get(SessionKey)
	if !ok {
		return AnonymousUser
	}
	var session sessionBlob
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return AnonymousUser
	}
	if session.Username == "" {
		return AnonymousUser
	}
	return session.Username
}

// UserPrefix returns a prefix provider that re-reads the session on every
// call, so switching the active user transparently switches the entire
// catalog view with no explicit migration step.
func UserPrefix(storage Storage) func() string {
	return func() string {
		return "user_" + CurrentUsername(storage) + "_"
	}
}

// StaticPrefix returns a prefix provider pinned to one username. Handlers
// use it with the username from the authenticated request.
func StaticPrefix(username string) func() string {
	if username == "" {
		username = AnonymousUser
	}
	return func() string {
		return "user_" + username + "_"
	}
}
