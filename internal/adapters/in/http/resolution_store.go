package http

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/suchimauz/appointment-availability-engine/internal/core/domain"
)

// resolutionSession — автомат между запросами оператора; действия над одним автоматом выполняются по очереди
type resolutionSession struct {
	mu         sync.Mutex
	resolution *domain.ConflictResolution
}

// resolutionStore — ограниченное хранилище незавершенных конфликтов, старые вытесняются
type resolutionStore struct {
	sessions *lru.Cache[string, *resolutionSession]
}

func newResolutionStore(size int) (*resolutionStore, error) {
	sessions, err := lru.New[string, *resolutionSession](size)
	if err != nil {
		return nil, err
	}
	return &resolutionStore{sessions: sessions}, nil
}

func (s *resolutionStore) put(resolution *domain.ConflictResolution) {
	s.sessions.Add(resolution.ID, &resolutionSession{resolution: resolution})
}

func (s *resolutionStore) get(id string) (*resolutionSession, bool) {
	return s.sessions.Get(id)
}

func (s *resolutionStore) remove(id string) {
	s.sessions.Remove(id)
}
