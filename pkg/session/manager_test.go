package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/vibecam/pkg/adapters/memory"
	"github.com/aretw0/vibecam/pkg/domain"
	"github.com/aretw0/vibecam/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
}

func (s SlowStore) Save(ctx context.Context, id string, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, sess)
}

func (s SlowStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateSerializesTurns(t *testing.T) {
	manager := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	writers := 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, err := manager.Update(ctx, id, func(s *domain.Session) error {
				s.Document.Set(fmt.Sprintf("k%d", n), true)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	for i := 0; i < writers; i++ {
		_, ok := s.Document.Get(fmt.Sprintf("k%d", i))
		assert.True(t, ok, "update %d was lost", i)
	}
}

func TestManager_UpdateReturnsBeforeAndAfter(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	before, after, err := manager.Update(ctx, "s", func(s *domain.Session) error {
		s.Status = domain.StatusReady
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, before, "first update has no previous session")
	assert.Equal(t, domain.StatusReady, after.Status)

	before, after, err = manager.Update(ctx, "s", func(s *domain.Session) error {
		s.Document.Set(domain.KeyFullPromptString, "done")
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, "", before.Document.String(domain.KeyFullPromptString))
	assert.Equal(t, "done", after.Document.String(domain.KeyFullPromptString))
}

func TestManager_UpdateErrorDoesNotSave(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, _, err := manager.Update(ctx, "s", func(s *domain.Session) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = manager.Load(ctx, "s")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_LoadOrStart(t *testing.T) {
	manager := session.NewManager(SlowStore{memory.NewStore()})
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, s)
		}()
	}
	wg.Wait()

	s, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCollecting, s.Status)
	assert.Equal(t, id, s.ID)
}
