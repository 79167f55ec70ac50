package scheduling

import "time"

// Interval — полуоткрытый интервал [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, duration time.Duration) Interval {
	return Interval{Start: start, End: start.Add(duration)}
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов.
// Совпадающие границы (End одного == Start другого) пересечением не считаются.
// Пустой интервал (Start >= End) не пересекается ни с чем: Shrink может
// схлопнуть интервал в точку, и такая точка конфликтом не является.
func (i Interval) Overlaps(other Interval) bool {
	if i.IsEmpty() || other.IsEmpty() {
		return false
	}
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i Interval) IsEmpty() bool {
	return !i.Start.Before(i.End)
}

// Shrink сжимает интервал с обеих сторон. Используется для толерантного
// сравнения при предпросмотре конфликтов игроков.
func (i Interval) Shrink(by time.Duration) Interval {
	shrunk := Interval{Start: i.Start.Add(by), End: i.End.Add(-by)}
	if !shrunk.Start.Before(shrunk.End) {
		mid := i.Start.Add(i.End.Sub(i.Start) / 2)
		return Interval{Start: mid, End: mid}
	}
	return shrunk
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
