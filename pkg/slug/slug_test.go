package slug

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBase(t *testing.T) {
	tests := map[string]string{
		"Spring Jam!! 2024":      "spring-jam-2024",
		"  --Hello,   World--  ": "hello-world",
		"already-slugged":        "already-slugged",
		"Café Night":             "caf-night",
		"!!!":                    "",
		"":                       "",
		"A":                      "a",
	}
	for in, want := range tests {
		assert.Equal(t, want, Base(in), "input %q", in)
	}
}

func TestMake_AppendsNumericSuffix(t *testing.T) {
	g := NewGenerator()
	s := g.Make("Spring Jam!! 2024")
	require.True(t, strings.HasPrefix(s, "spring-jam-2024-"), s)
	suffix := strings.TrimPrefix(s, "spring-jam-2024-")
	assert.Regexp(t, `^[0-9]+$`, suffix)
}

func TestMake_EmptyBaseFallsBack(t *testing.T) {
	g := NewGenerator()
	assert.True(t, strings.HasPrefix(g.Make("???"), "event-"))
}

func TestNext_FrozenClockStillIncreases(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := &Generator{now: func() time.Time { return frozen }}

	a, b, c := g.Next(), g.Next(), g.Next()
	assert.Equal(t, int64(1_700_000_000_000), a)
	assert.Equal(t, a+1, b)
	assert.Equal(t, b+1, c)
}

func TestMake_ConcurrentIdenticalTitlesNeverCollide(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	g := &Generator{now: func() time.Time { return frozen }}

	const n = 200
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := g.Make("Spring Jam!! 2024")
			mu.Lock()
			seen[s] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}
