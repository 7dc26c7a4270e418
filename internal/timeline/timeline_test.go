package timeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalis-app/flightrec/internal/models"
)

func snapshotAt(us int64) models.Snapshot {
	s := models.NewSnapshot()
	s.Stamp(us)
	s.Values["alt"] = float64(us)
	return s
}

func TestTimeline_AppendKeepsOrder(t *testing.T) {
	tl := New()
	for i := 0; i < 100; i++ {
		require.NoError(t, tl.Append(snapshotAt(int64(i)*20000)))
	}

	require.Equal(t, 100, tl.Len())
	prev := int64(-1)
	for i := 0; i < tl.Len(); i++ {
		s, ok := tl.At(i)
		require.True(t, ok)
		assert.GreaterOrEqual(t, s.TimestampUs, prev)
		prev = s.TimestampUs
	}
	assert.Equal(t, int64(99*20), tl.DurationMs())
}

func TestTimeline_AppendRejectsOlderTimestamp(t *testing.T) {
	tl := New()
	require.NoError(t, tl.Append(snapshotAt(1000)))
	assert.ErrorIs(t, tl.Append(snapshotAt(999)), ErrOutOfOrder)
	assert.Equal(t, 1, tl.Len())
}

func TestTimeline_EmptyAccessors(t *testing.T) {
	tl := New()

	_, ok := tl.Last()
	assert.False(t, ok)
	_, ok = tl.At(0)
	assert.False(t, ok)
	_, ok = tl.At(-1)
	assert.False(t, ok)
	assert.Zero(t, tl.DurationMs())
}

func TestTimeline_ReplaceAndClear(t *testing.T) {
	tl := New()
	require.NoError(t, tl.Replace([]models.Snapshot{snapshotAt(0), snapshotAt(10), snapshotAt(20)}))
	assert.Equal(t, 3, tl.Len())

	err := tl.Replace([]models.Snapshot{snapshotAt(0), snapshotAt(30), snapshotAt(20)})
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, 0, tl.Len())

	require.NoError(t, tl.Append(snapshotAt(5)))
	tl.Clear()
	assert.Equal(t, 0, tl.Len())
}

func TestTimeline_ConcurrentReadersDuringAppend(t *testing.T) {
	tl := New()
	const n = 5000

	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for tl.Len() < n {
				size := tl.Len()
				if size == 0 {
					continue
				}
				s, ok := tl.At(size - 1)
				if !ok || s.Values["alt"] != float64(s.TimestampUs) {
					t.Errorf("inconsistent snapshot at %d", size-1)
					return
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		if err := tl.Append(snapshotAt(int64(i))); err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()
}
