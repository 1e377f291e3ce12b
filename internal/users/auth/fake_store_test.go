// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/socialite/internal/platform/apperr"
)

// memoryUsers is an in-memory UserRepository with the same uniqueness rules
// as the Postgres schema.
type memoryUsers struct {
	mu        sync.Mutex
	users     map[string]*User
	providers map[ProviderLink]string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		users:     map[string]*User{},
		providers: map[ProviderLink]string{},
	}
}

func (store *memoryUsers) find(match func(*User) bool) (*User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (store *memoryUsers) FindByID(_ context.Context, id string) (*User, error) {
	return store.find(func(user *User) bool { return user.ID == id })
}

func (store *memoryUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	return store.find(func(user *User) bool { return email != "" && user.Email == email })
}

func (store *memoryUsers) FindByUsername(_ context.Context, username string) (*User, error) {
	return store.find(func(user *User) bool { return user.Username == username })
}

func (store *memoryUsers) FindByProvider(_ context.Context, provider, subject string) (*User, error) {
	store.mu.Lock()
	id, ok := store.providers[ProviderLink{Provider: provider, Subject: subject}]
	store.mu.Unlock()

	if !ok {
		return nil, apperr.NotFound("User")
	}
	return store.find(func(user *User) bool { return user.ID == id })
}

func (store *memoryUsers) Create(_ context.Context, user *User, link *ProviderLink) error {
	if err := validateNew(user, link); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.users {
		if user.Email != "" && existing.Email == user.Email {
			return ErrEmailTaken
		}
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	if link != nil {
		if _, ok := store.providers[*link]; ok {
			return ErrProviderLinked
		}
		store.providers[*link] = user.ID
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
		user.UpdatedAt = user.CreatedAt
	}
	clone := *user
	store.users[user.ID] = &clone
	return nil
}

func (store *memoryUsers) LinkProvider(_ context.Context, userID string, link ProviderLink) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.providers[link]; ok {
		return ErrProviderLinked
	}
	store.providers[link] = userID
	return nil
}

func (store *memoryUsers) linksOf(userID string) []ProviderLink {
	store.mu.Lock()
	defer store.mu.Unlock()

	var links []ProviderLink
	for link, id := range store.providers {
		if id == userID {
			links = append(links, link)
		}
	}
	return links
}

func (store *memoryUsers) count() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.users)
}

// memoryTokens is an in-memory TokenRepository. Every operation runs under
// one lock, which gives the same per-identity atomicity as the SQL version.
type memoryTokens struct {
	mu     sync.Mutex
	tokens map[string][]TokenRecord
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{tokens: map[string][]TokenRecord{}}
}

func (store *memoryTokens) Append(_ context.Context, userID, tokenHash string, issuedAt time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.tokens[userID] = append(store.tokens[userID], TokenRecord{TokenHash: tokenHash, IssuedAt: issuedAt})
	return nil
}

func (store *memoryTokens) Replace(_ context.Context, userID, oldHash, newHash string, issuedAt time.Time) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for i, record := range store.tokens[userID] {
		if record.TokenHash == oldHash {
			store.tokens[userID][i] = TokenRecord{TokenHash: newHash, RotatedFrom: oldHash, IssuedAt: issuedAt}
			return true, nil
		}
	}
	return false, nil
}

func (store *memoryTokens) Remove(_ context.Context, userID, tokenHash string) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	records := store.tokens[userID]
	for i, record := range records {
		if record.TokenHash == tokenHash {
			store.tokens[userID] = append(records[:i:i], records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (store *memoryTokens) ReplaceAll(_ context.Context, userID, tokenHash string, issuedAt time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.tokens[userID] = []TokenRecord{{TokenHash: tokenHash, IssuedAt: issuedAt}}
	return nil
}

func (store *memoryTokens) Wipe(_ context.Context, userID string) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	revoked := int64(len(store.tokens[userID]))
	delete(store.tokens, userID)
	return revoked, nil
}

func (store *memoryTokens) List(_ context.Context, userID string) ([]TokenRecord, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	return append([]TokenRecord(nil), store.tokens[userID]...), nil
}

func (store *memoryTokens) hashes(userID string) []string {
	store.mu.Lock()
	defer store.mu.Unlock()

	hashes := make([]string, 0, len(store.tokens[userID]))
	for _, record := range store.tokens[userID] {
		hashes = append(hashes, record.TokenHash)
	}
	return hashes
}

// memoryHandshakes is an in-memory HandshakeRepository ignoring TTLs.
type memoryHandshakes struct {
	mu      sync.Mutex
	pending map[string]Handshake
}

func newMemoryHandshakes() *memoryHandshakes {
	return &memoryHandshakes{pending: map[string]Handshake{}}
}

func (store *memoryHandshakes) Save(_ context.Context, state string, handshake Handshake, _ time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.pending[state] = handshake
	return nil
}

func (store *memoryHandshakes) Consume(_ context.Context, state string) (*Handshake, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	handshake, ok := store.pending[state]
	if !ok {
		return nil, apperr.NotFound("Handshake")
	}
	delete(store.pending, state)
	return &handshake, nil
}
