package session

import (
	"encoding/json"
	"fmt"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

const snapshotVersion = 1

// snapshot is exactly the persisted subset of State. IsLoading and Error
// never cross this boundary.
type snapshot struct {
	AccessToken     string              `json:"accessToken,omitempty"`
	User            *domain.UserProfile `json:"user,omitempty"`
	IsAuthenticated bool                `json:"isAuthenticated"`
}

type envelope struct {
	State   snapshot `json:"state"`
	Version int      `json:"version"`
}

func toSnapshot(s State) snapshot {
	return snapshot{
		AccessToken:     s.AccessToken,
		User:            cloneUser(s.User),
		IsAuthenticated: s.IsAuthenticated,
	}
}

func encodeSnapshot(s snapshot) ([]byte, error) {
	b, err := json.Marshal(envelope{State: s, Version: snapshotVersion})
	if err != nil {
		return nil, fmt.Errorf("encode session snapshot: %w", err)
	}
	return b, nil
}

func decodeSnapshot(b []byte) (snapshot, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return snapshot{}, fmt.Errorf("decode session snapshot: %w", err)
	}
	if env.Version != snapshotVersion {
		return snapshot{}, fmt.Errorf("decode session snapshot: unsupported version %d", env.Version)
	}
	return env.State, nil
}

// applySnapshot merges a persisted snapshot into defaults. The stored
// isAuthenticated flag is not trusted: it is derived again from the token and
// profile so a damaged record can never yield an authenticated session
// without a credential.
func applySnapshot(defaults State, snap snapshot) State {
	s := defaults
	s.AccessToken = snap.AccessToken
	s.User = cloneUser(snap.User)
	s.IsAuthenticated = derivedAuthenticated(s)
	if !s.IsAuthenticated {
		s.AccessToken = ""
		s.User = nil
	}
	return s
}

func derivedAuthenticated(s State) bool {
	return s.AccessToken != "" && s.User != nil
}

func cloneUser(u *domain.UserProfile) *domain.UserProfile {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
