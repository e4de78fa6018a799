package petstore

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Store is an in-memory Pets backend keyed by pet name. It is safe for
// concurrent use.
type Store struct {
	mu   sync.RWMutex
	pets map[string]Pet
}

var _ Pets = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{pets: make(map[string]Pet)}
}

// List returns all pets ordered by name. The result is never nil.
func (s *Store) List(context.Context) ([]Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pets := make([]Pet, 0, len(s.pets))
	for _, p := range s.pets {
		pets = append(pets, p)
	}
	slices.SortFunc(pets, func(a, b Pet) int {
		return strings.Compare(a.Name, b.Name)
	})
	return pets, nil
}

// Create adds pet. It fails with ErrPetExists when the name is taken and
// ErrPetNameRequired when it is empty.
func (s *Store) Create(_ context.Context, pet Pet) (Pet, error) {
	if pet.Name == "" {
		return Pet{}, ErrPetNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[pet.Name]; ok {
		return Pet{}, ErrPetExists
	}
	s.pets[pet.Name] = pet
	return pet, nil
}

// Update replaces the pet stored under id. It fails with ErrPetNotFound
// when there is none.
func (s *Store) Update(_ context.Context, id string, pet Pet) (Pet, error) {
	if pet.Name == "" {
		return Pet{}, ErrPetNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return Pet{}, ErrPetNotFound
	}
	s.pets[id] = pet
	return pet, nil
}

// Delete removes the pet stored under id. It fails with ErrPetNotFound
// when there is none.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pets[id]; !ok {
		return ErrPetNotFound
	}
	delete(s.pets, id)
	return nil
}
