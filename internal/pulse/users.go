package pulse

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrUserNotFound is returned by a UserLocator for unknown user IDs.
var ErrUserNotFound = errors.New("user not found")

// UserProfile holds a user's known locations. Resolution order is fixed:
// current explicit location, then home, then last detected.
type UserProfile struct {
	UserID       string
	Current      string
	Home         string
	LastDetected string
}

// Location resolves the profile to a single place name, or empty when the
// user has no usable location at all.
func (p UserProfile) Location() string {
	for _, candidate := range []string{p.Current, p.Home, p.LastDetected} {
		if strings.TrimSpace(candidate) != "" {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// UserLocator looks up the stored locations for a user.
type UserLocator interface {
	Profile(ctx context.Context, userID string) (UserProfile, error)
}

// MemoryUserLocator is an in-process UserLocator backed by a map. Profiles
// are seeded at construction or upserted later.
type MemoryUserLocator struct {
	mu       sync.RWMutex
	profiles map[string]UserProfile
}

// NewMemoryUserLocator creates a locator seeded with the given profiles.
func NewMemoryUserLocator(seed ...UserProfile) *MemoryUserLocator {
	profiles := make(map[string]UserProfile, len(seed))
	for _, p := range seed {
		profiles[p.UserID] = p
	}
	return &MemoryUserLocator{profiles: profiles}
}

// Profile returns the stored profile for userID.
func (l *MemoryUserLocator) Profile(ctx context.Context, userID string) (UserProfile, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.profiles[userID]
	if !ok {
		return UserProfile{}, ErrUserNotFound
	}
	return p, nil
}

// Upsert stores or replaces a profile.
func (l *MemoryUserLocator) Upsert(p UserProfile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[p.UserID] = p
}
