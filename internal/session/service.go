package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/photomaton/service/internal/metrics"
	"github.com/photomaton/service/internal/storage"
)

// ErrInvalidInput is returned when a create request carries no images or a
// malformed one. Its message is safe to echo to the caller.
var ErrInvalidInput = errors.New("invalid input")

// Service stores submitted images and records them as a session.
type Service struct {
	store   Store
	backend storage.Backend
	folder  string
	metrics *metrics.Metrics
}

// NewService creates a new session Service.
func NewService(store Store, backend storage.Backend, folder string, m *metrics.Metrics) *Service {
	return &Service{store: store, backend: backend, folder: folder, metrics: m}
}

// CreateSession validates every data URL, stores them in order and persists
// the resulting references as a new session. Validation runs over the whole
// batch before the first write, so a malformed image persists nothing. Any
// storage error aborts the request; images already stored stay orphaned.
func (s *Service) CreateSession(ctx context.Context, dataURLs []string, publish bool) (*Session, error) {
	if err := s.Validate(dataURLs); err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(dataURLs))
	for i, d := range dataURLs {
		ref, err := s.backend.Store(ctx, d, s.folder, publish)
		s.metrics.ImagesStored.WithLabelValues(s.backend.Name(), metrics.Outcome(err)).Inc()
		if err != nil {
			if len(refs) > 0 {
				log.Printf("session: aborting batch after %d stored image(s): %v", len(refs), refs)
			}
			return nil, fmt.Errorf("store image %d: %w", i+1, err)
		}
		refs = append(refs, ref)
	}

	id, err := s.store.Create(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.metrics.SessionsCreated.Inc()
	log.Printf("session: created %s with %d image(s) via %s", id, len(refs), s.backend.Name())
	return &Session{ID: id, Images: refs}, nil
}

// Validate checks that dataURLs is non-empty and every entry is a well-formed
// image data URL. It writes nothing.
func (s *Service) Validate(dataURLs []string) error {
	if len(dataURLs) == 0 {
		return fmt.Errorf("%w: images must be a non-empty list", ErrInvalidInput)
	}
	for i, d := range dataURLs {
		if _, err := storage.ParseDataURL(d); err != nil {
			return fmt.Errorf("%w: image %d: %v", ErrInvalidInput, i+1, err)
		}
	}
	return nil
}

// Get returns the session for id. Sessions without images count as missing.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(sess.Images) == 0 {
		return nil, ErrNotFound
	}
	return sess, nil
}

// IsNotFound returns true when the error indicates a session was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
