// Package authstore implements the password-hash-table half of the
// out-of-core authentication providers spec §1 names as external
// collaborators (the system/PAM half is a syscall surface no library in the
// retrieval pack touches, and stays genuinely external).
package authstore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned by Authenticate when the username has no entry.
var ErrNotFound = errors.New("authstore: unknown user")

// ErrMismatch is returned by Authenticate when the password is wrong.
var ErrMismatch = errors.New("authstore: wrong password")

// SecurityOption is a tagged replacement for the source's re-interpreted
// bool-as-enum flags (spec §9 DESIGN NOTES (b) "is_secure_options"): each
// provider is configured with an explicit, named option set instead of
// positional booleans.
type SecurityOption uint8

const (
	// OptionNone applies no additional restriction beyond a password match.
	OptionNone SecurityOption = iota
	// OptionRequireStrongHash rejects (as a mismatch) entries hashed with a
	// bcrypt cost below bcrypt.DefaultCost. No rehash is performed.
	OptionRequireStrongHash
	// OptionLockoutOnFailure is accepted but has no effect: authstore
	// neither records failed attempts nor enforces a lockout.
	OptionLockoutOnFailure
)

// Store is an in-memory username→bcrypt-hash table, loaded once from a
// colon-separated password file (`user:bcrypt-hash` per line, the same flat
// shape a htpasswd-style table uses) and consulted by the out-of-core auth
// provider the route dispatcher calls before routing a protected request.
type Store struct {
	mu      sync.RWMutex
	hashes  map[string][]byte
	option  SecurityOption
	minCost int
}

// New creates an empty Store with the given security option.
func New(option SecurityOption) *Store {
	return &Store{hashes: make(map[string][]byte), option: option, minCost: bcrypt.DefaultCost}
}

// LoadFile populates the store from a `user:hash` text file, one entry per
// line; blank lines and lines starting with '#' are skipped.
func LoadFile(path string, option SecurityOption) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("authstore: open %s: %w", path, err)
	}
	defer f.Close()

	s := New(option)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		user, hash, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("authstore: malformed line %q", line)
		}
		s.hashes[user] = []byte(hash)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("authstore: scan %s: %w", path, err)
	}
	return s, nil
}

// SetPassword hashes password with bcrypt and stores it under user,
// overwriting any existing entry.
func (s *Store) SetPassword(user, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.minCost)
	if err != nil {
		return fmt.Errorf("authstore: hash password: %w", err)
	}
	s.mu.Lock()
	s.hashes[user] = hash
	s.mu.Unlock()
	return nil
}

// Authenticate verifies password against the stored hash for user.
func (s *Store) Authenticate(user, password string) error {
	s.mu.RLock()
	hash, ok := s.hashes[user]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	if s.option == OptionRequireStrongHash {
		if cost, err := bcrypt.Cost(hash); err != nil || cost < bcrypt.DefaultCost {
			return ErrMismatch
		}
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrMismatch
	}
	return nil
}
