package scan

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_FeedRequiresEnable(t *testing.T) {
	s := NewSessions()
	_, err := s.Feed("teacher-1", keys(0, 5, "1", "Enter"))
	assert.ErrorIs(t, err, ErrNotScanning)
}

func TestSessions_EmitsPerOwner(t *testing.T) {
	s := NewSessions()
	s.Enable("t1")
	s.Enable("t2")

	_, err := s.Feed("t1", keys(0, 5, "A", "B"))
	require.NoError(t, err)

	tokens, err := s.Feed("t2", keys(0, 5, "C", "Enter"))
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, tokens)

	tokens, err = s.Feed("t1", keys(15, 5, "Enter"))
	require.NoError(t, err)
	assert.Equal(t, []string{"AB"}, tokens)
}

func TestSessions_DisableForgetsBuffer(t *testing.T) {
	s := NewSessions()
	s.Enable("t1")
	_, _ = s.Feed("t1", keys(0, 5, "X"))
	s.Disable("t1")
	s.Disable("t1")
	assert.False(t, s.Active("t1"))

	s.Enable("t1")
	tokens, err := s.Feed("t1", keys(6, 5, "Enter"))
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestSessions_ConcurrentOwners(t *testing.T) {
	s := NewSessions()
	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := 0; i < 8; i++ {
		owner := fmt.Sprintf("t%d", i)
		s.Enable(owner)
		wg.Add(1)
		go func(i int, owner string) {
			defer wg.Done()
			tokens, _ := s.Feed(owner, keys(0, 5, fmt.Sprint(i), "Enter"))
			results[i] = tokens
		}(i, owner)
	}
	wg.Wait()
	for i, tokens := range results {
		assert.Equal(t, []string{fmt.Sprint(i)}, tokens)
	}
}
