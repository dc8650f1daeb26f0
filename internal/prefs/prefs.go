// Package prefs persists the daemon's audio preferences in a Badger
// database and serves them to the engine as an earcon.Provider. Writers go
// through Apply, which validates, persists per-key, and pulses every
// subscriber so caches refresh.
package prefs

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/earconlabs/earcon/internal/errors"
	"github.com/earconlabs/earcon/internal/logger"
	"github.com/earconlabs/earcon/pkg/earcon"
)

const keyPrefix = "pref:"

// Store wraps a Badger database holding one key per preference.
type Store struct {
	db  *badger.DB
	log *logger.Logger

	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

// New opens (or creates) the preference database at path.
func New(path string, log *logger.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil      // Disable Badger's internal logging
	opts.SyncWrites = true // Preferences are tiny and must survive crashes
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference db: %w", err)
	}

	if log != nil {
		log.Info("preference database opened", "path", path)
	}
	return &Store{
		db:   db,
		log:  log,
		subs: make(map[int]chan struct{}),
	}, nil
}

// Close closes the database. Subscriber channels stay open; the cancel
// funcs handed out by Subscribe remain safe to call.
func (s *Store) Close() error {
	if s.log != nil {
		s.log.Info("closing preference database")
	}
	return s.db.Close()
}

// Load implements earcon.Provider. Missing keys stay zero; the engine's
// snapshot layer turns zeros into documented defaults.
func (s *Store) Load(ctx context.Context) (earcon.Values, error) {
	if err := ctx.Err(); err != nil {
		return earcon.Values{}, err
	}

	var v earcon.Values
	err := s.db.View(func(txn *badger.Txn) error {
		if err := s.getInto(txn, earcon.KeyEnabled, &v.Enabled); err != nil {
			return err
		}
		if err := s.getInto(txn, earcon.KeyLoggingEnabled, &v.LoggingEnabled); err != nil {
			return err
		}
		if err := s.getInto(txn, earcon.KeyLogThreshold, &v.LogThreshold); err != nil {
			return err
		}
		return s.getInto(txn, earcon.KeyLogCooldown, &v.LogCooldown)
	})
	if err != nil {
		return earcon.Values{}, fmt.Errorf("load preferences: %w", err)
	}
	return v, nil
}

// Subscribe implements earcon.Provider. The returned channel pulses after
// every successful Apply.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Update is a partial preference write; nil fields are left untouched.
type Update struct {
	Enabled        *bool `json:"enabled,omitempty"`
	LoggingEnabled *bool `json:"loggingEnabled,omitempty"`
	LogThreshold   *int  `json:"logThreshold,omitempty"`
	LogCooldown    *int  `json:"logCooldown,omitempty"`
}

// Apply validates and persists an update, returning the resulting raw
// values. Subscribers are notified once per call, not per key.
func (s *Store) Apply(ctx context.Context, u Update) (earcon.Values, error) {
	if err := ctx.Err(); err != nil {
		return earcon.Values{}, err
	}
	if u.LogThreshold != nil && *u.LogThreshold < 0 {
		return earcon.Values{}, domainerrors.Validation("logThreshold must not be negative")
	}
	if u.LogCooldown != nil && *u.LogCooldown < 0 {
		return earcon.Values{}, domainerrors.Validation("logCooldown must not be negative")
	}

	v, err := s.Load(ctx)
	if err != nil {
		return earcon.Values{}, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if u.Enabled != nil {
			v.Enabled = *u.Enabled
			if err := setKey(txn, earcon.KeyEnabled, v.Enabled); err != nil {
				return err
			}
		}
		if u.LoggingEnabled != nil {
			v.LoggingEnabled = *u.LoggingEnabled
			if err := setKey(txn, earcon.KeyLoggingEnabled, v.LoggingEnabled); err != nil {
				return err
			}
		}
		if u.LogThreshold != nil {
			v.LogThreshold = *u.LogThreshold
			if err := setKey(txn, earcon.KeyLogThreshold, v.LogThreshold); err != nil {
				return err
			}
		}
		if u.LogCooldown != nil {
			v.LogCooldown = *u.LogCooldown
			if err := setKey(txn, earcon.KeyLogCooldown, v.LogCooldown); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return earcon.Values{}, fmt.Errorf("apply preferences: %w", err)
	}

	s.notify()
	return v, nil
}

// notify pulses every subscriber without blocking on slow ones; a pending
// pulse already queued is enough.
func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) getInto(txn *badger.Txn, name string, dest any) error {
	item, err := txn.Get([]byte(keyPrefix + name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dest)
	})
}

func setKey(txn *badger.Txn, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return txn.Set([]byte(keyPrefix+name), data)
}
