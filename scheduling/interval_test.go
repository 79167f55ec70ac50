package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 9, 12, hour, minute, 0, 0, time.UTC)
}

func TestIntervalOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{
			name: "identical intervals overlap",
			a:    Interval{Start: at(9, 0), End: at(9, 45)},
			b:    Interval{Start: at(9, 0), End: at(9, 45)},
			want: true,
		},
		{
			name: "partial overlap",
			a:    Interval{Start: at(9, 0), End: at(10, 0)},
			b:    Interval{Start: at(9, 30), End: at(10, 30)},
			want: true,
		},
		{
			name: "contained interval overlaps",
			a:    Interval{Start: at(9, 0), End: at(11, 0)},
			b:    Interval{Start: at(9, 30), End: at(10, 0)},
			want: true,
		},
		{
			name: "touching endpoints do not overlap",
			a:    Interval{Start: at(9, 0), End: at(9, 45)},
			b:    Interval{Start: at(9, 45), End: at(10, 30)},
			want: false,
		},
		{
			name: "disjoint intervals",
			a:    Interval{Start: at(9, 0), End: at(9, 45)},
			b:    Interval{Start: at(11, 0), End: at(11, 45)},
			want: false,
		},
		{
			name: "empty interval overlaps nothing",
			a:    Interval{Start: at(9, 30), End: at(9, 30)},
			b:    Interval{Start: at(9, 0), End: at(10, 0)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestIntervalShrink(t *testing.T) {
	iv := Interval{Start: at(9, 0), End: at(10, 0)}

	shrunk := iv.Shrink(5 * time.Minute)
	assert.Equal(t, at(9, 5), shrunk.Start)
	assert.Equal(t, at(9, 55), shrunk.End)

	// Сжатие больше половины длины схлопывает интервал в точку-середину.
	collapsed := iv.Shrink(40 * time.Minute)
	assert.Equal(t, at(9, 30), collapsed.Start)
	assert.Equal(t, at(9, 30), collapsed.End)
	assert.False(t, collapsed.Overlaps(iv))
}

func TestNewInterval(t *testing.T) {
	iv := NewInterval(at(9, 0), 45*time.Minute)
	assert.Equal(t, at(9, 45), iv.End)
	assert.Equal(t, 45*time.Minute, iv.Duration())
}
