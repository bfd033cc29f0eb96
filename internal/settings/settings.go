package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/storage"
	"go.uber.org/zap"
)

// Store persists the user/settings object under a fixed key.
type Store struct {
	mu  sync.Mutex
	kv  storage.KV
	log *zap.Logger
}

func NewStore(kv storage.KV, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{kv: kv, log: log}
}

// Load returns the stored settings, or zero settings when none are stored or
// the record cannot be decoded.
func (s *Store) Load(ctx context.Context) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Update applies fn to the stored settings and persists the result.
func (s *Store) Update(ctx context.Context, fn func(*domain.Settings)) (*domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	fn(st)
	st.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal settings failed: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyUser, data); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return st, nil
}

// Token implements api.TokenSource.
func (s *Store) Token(ctx context.Context) (string, error) {
	st, err := s.Load(ctx)
	if err != nil {
		return "", err
	}
	return st.Token, nil
}

// SignIn records the session returned by login.
func (s *Store) SignIn(ctx context.Context, token, userID, name, email string) (*domain.Settings, error) {
	return s.Update(ctx, func(st *domain.Settings) {
		st.Token = token
		st.UserID = userID
		st.Name = name
		st.Email = email
	})
}

// SignOut forgets the session and profile but keeps device preferences.
func (s *Store) SignOut(ctx context.Context) error {
	_, err := s.Update(ctx, func(st *domain.Settings) {
		*st = domain.Settings{Language: st.Language, Location: st.Location}
	})
	return err
}

func (s *Store) SetAddress(ctx context.Context, address string) (*domain.Settings, error) {
	return s.Update(ctx, func(st *domain.Settings) { st.Address = address })
}

func (s *Store) SetLocation(ctx context.Context, loc domain.Coordinates) (*domain.Settings, error) {
	return s.Update(ctx, func(st *domain.Settings) { st.Location = &loc })
}

func (s *Store) load(ctx context.Context) (*domain.Settings, error) {
	data, err := s.kv.Get(ctx, storage.KeyUser)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var st domain.Settings
	if err := json.Unmarshal(data, &st); err != nil {
		s.log.Warn("discarding unreadable settings", zap.Error(err))
		return &domain.Settings{}, nil
	}
	return &st, nil
}
