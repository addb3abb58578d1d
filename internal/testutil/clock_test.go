package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/murder/internal/domain"
)

func TestStepClock_Advances(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Minute)

	assert.Equal(t, DefaultStart, c.Now())
	assert.Equal(t, DefaultStart.Add(time.Minute), c.Now())
	assert.Equal(t, DefaultStart.Add(2*time.Minute), c.Now())
	assert.Equal(t, 3, c.Calls())
}

func TestStepClock_Reset(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewStepClock(start, time.Second)
	c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, start, c.Now())
}

func TestStepClock_ThreadSafe(t *testing.T) {
	c := NewStepClock(time.Time{}, time.Nanosecond)
	const goroutines = 50

	var wg sync.WaitGroup
	times := make(chan time.Time, goroutines*10)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				times <- c.Now()
			}
		}()
	}
	wg.Wait()
	close(times)

	seen := make(map[time.Time]bool)
	for ts := range times {
		require.False(t, seen[ts], "time %v returned twice", ts)
		seen[ts] = true
	}
	assert.Len(t, seen, goroutines*10)
}

func TestJoinOrderShuffler(t *testing.T) {
	g := &domain.Game{ID: "g"}
	c, _ := g.AddCircle("c1", "")
	for _, n := range []string{"A", "B", "C"} {
		p, _ := g.AddPlayer(n, "")
		_, err := c.Join(p)
		require.NoError(t, err)
	}

	require.NoError(t, JoinOrderShuffler{}.Shuffle(c))
	for i, a := range c.Assignments {
		assert.Equal(t, i, a.Position)
	}
}

func TestStaticCodes(t *testing.T) {
	assert.Equal(t, "alice-c1", StaticCodes{}.Code("g", "c1", "Alice"))
}
