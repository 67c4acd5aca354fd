package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, start, end string) TimeRange {
	t.Helper()

	s, err := time.Parse(time.RFC3339, start)
	require.NoError(t, err)
	e, err := time.Parse(time.RFC3339, end)
	require.NoError(t, err)

	r, err := NewTimeRange(s, e)
	require.NoError(t, err)
	return r
}

func TestNewTimeRange_RejectsDegenerate(t *testing.T) {
	now := time.Now()

	_, err := NewTimeRange(now, now)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = NewTimeRange(now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = NewTimeRange(now, now.Add(time.Minute))
	assert.NoError(t, err)
}

func TestTimeRange_Overlaps(t *testing.T) {
	base := mustRange(t, "2025-03-10T14:00:00Z", "2025-03-10T15:00:00Z")

	tests := []struct {
		name  string
		other TimeRange
		want  bool
	}{
		{
			name:  "identical ranges overlap",
			other: mustRange(t, "2025-03-10T14:00:00Z", "2025-03-10T15:00:00Z"),
			want:  true,
		},
		{
			name:  "partial overlap from the middle",
			other: mustRange(t, "2025-03-10T14:30:00Z", "2025-03-10T15:30:00Z"),
			want:  true,
		},
		{
			name:  "fully contained",
			other: mustRange(t, "2025-03-10T14:15:00Z", "2025-03-10T14:45:00Z"),
			want:  true,
		},
		{
			name:  "containing",
			other: mustRange(t, "2025-03-10T13:00:00Z", "2025-03-10T16:00:00Z"),
			want:  true,
		},
		{
			name:  "back-to-back after does not overlap",
			other: mustRange(t, "2025-03-10T15:00:00Z", "2025-03-10T16:00:00Z"),
			want:  false,
		},
		{
			name:  "back-to-back before does not overlap",
			other: mustRange(t, "2025-03-10T13:00:00Z", "2025-03-10T14:00:00Z"),
			want:  false,
		},
		{
			name:  "disjoint",
			other: mustRange(t, "2025-03-11T14:00:00Z", "2025-03-11T15:00:00Z"),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, base.Overlaps(tt.other))
			// Предикат симметричен
			assert.Equal(t, tt.want, tt.other.Overlaps(base))
		})
	}
}

// Перебор случайных пар интервалов: результат предиката совпадает
// с наивной проверкой по определению полуоткрытого интервала.
func TestTimeRange_Overlaps_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 1000; i++ {
		aStart := day.Add(time.Duration(rng.Intn(1380)) * time.Minute)
		a, err := NewTimeRange(aStart, aStart.Add(time.Duration(1+rng.Intn(240))*time.Minute))
		require.NoError(t, err)

		bStart := day.Add(time.Duration(rng.Intn(1380)) * time.Minute)
		b, err := NewTimeRange(bStart, bStart.Add(time.Duration(1+rng.Intn(240))*time.Minute))
		require.NoError(t, err)

		naive := false
		for m := a.Start; m.Before(a.End); m = m.Add(time.Minute) {
			if !m.Before(b.Start) && m.Before(b.End) {
				naive = true
				break
			}
		}

		assert.Equal(t, naive, a.Overlaps(b), "a=%s b=%s", a, b)
		assert.Equal(t, naive, b.Overlaps(a), "a=%s b=%s", a, b)
	}
}

func TestDayWindow(t *testing.T) {
	// UTC: окно совпадает с календарными сутками
	utc := DayWindow(2025, time.March, 10, 0)
	assert.Equal(t, time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), utc.Start)
	assert.Equal(t, time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC), utc.End)

	// UTC+3: локальная полночь наступает на три часа раньше по UTC
	msk := DayWindow(2025, time.March, 10, 180)
	assert.Equal(t, time.Date(2025, time.March, 9, 21, 0, 0, 0, time.UTC), msk.Start)
	assert.Equal(t, 24*time.Hour, msk.Duration())

	// UTC-5: локальная полночь позже UTC
	est := DayWindow(2025, time.March, 10, -300)
	assert.Equal(t, time.Date(2025, time.March, 10, 5, 0, 0, 0, time.UTC), est.Start)

	// Бронирование через локальную полночь пересекает оба соседних окна
	late := mustRange(t, "2025-03-09T20:30:00Z", "2025-03-09T21:30:00Z")
	prev := DayWindow(2025, time.March, 9, 180)
	assert.True(t, late.Overlaps(msk))
	assert.True(t, late.Overlaps(prev))
}
