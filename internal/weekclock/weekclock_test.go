package weekclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nv0110/bosstracker/internal/models"
)

func TestStartOf(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want models.WeekKey
	}{
		{"thursday morning", time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC), "2024-12-26"},
		{"wednesday last second", time.Date(2024, 12, 25, 23, 59, 59, 0, time.UTC), "2024-12-19"},
		{"thursday midnight exactly", time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "2024-12-26"},
		{"saturday", time.Date(2024, 12, 28, 18, 30, 0, 0, time.UTC), "2024-12-26"},
		{"sunday", time.Date(2024, 12, 29, 1, 0, 0, 0, time.UTC), "2024-12-26"},
		{"monday across year", time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC), "2025-01-02"},
		{"non utc zone", time.Date(2024, 12, 26, 7, 0, 0, 0, time.FixedZone("KST", 9*3600)), "2024-12-19"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, StartOf(test.at))
		})
	}
}

func TestStartOf_WholeWeekMapsToSameThursday(t *testing.T) {
	start := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	for offset := time.Duration(0); offset < 7*24*time.Hour; offset += 37 * time.Minute {
		key := StartOf(start.Add(offset))
		require.Equal(t, models.WeekKey("2025-03-06"), key, "offset %s", offset)
	}
	assert.Equal(t, models.WeekKey("2025-03-13"), StartOf(start.Add(7*24*time.Hour)))
}

func TestStartOf_AlwaysThursday(t *testing.T) {
	at := time.Date(2023, 1, 1, 5, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i++ {
		key := StartOf(at.AddDate(0, 0, i))
		assert.True(t, IsValidWeekStart(string(key)), "day %d produced %s", i, key)
	}
}

func TestWeekStartWithOffsetAt(t *testing.T) {
	at := time.Date(2024, 12, 26, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, models.WeekKey("2024-12-26"), WeekStartWithOffsetAt(at, 0))
	assert.Equal(t, models.WeekKey("2024-12-19"), WeekStartWithOffsetAt(at, -1))
	assert.Equal(t, models.WeekKey("2025-01-09"), WeekStartWithOffsetAt(at, 2))
}

func TestWeekEnd(t *testing.T) {
	end, err := WeekEnd("2024-12-26")
	require.NoError(t, err)
	assert.Equal(t, models.WeekKey("2025-01-01"), end)

	_, err = WeekEnd("2024-12-25")
	assert.Error(t, err)
}

func TestShift(t *testing.T) {
	next, err := Shift("2024-12-26", 1)
	require.NoError(t, err)
	assert.Equal(t, models.WeekKey("2025-01-02"), next)

	_, err = Shift("not-a-date", 1)
	assert.Error(t, err)
}

func TestIsValidWeekStart(t *testing.T) {
	assert.True(t, IsValidWeekStart("2024-12-19"))
	assert.False(t, IsValidWeekStart("2024-12-20"))
	assert.False(t, IsValidWeekStart("2024-13-01"))
	assert.False(t, IsValidWeekStart(""))
}
