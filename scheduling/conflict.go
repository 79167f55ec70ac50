package scheduling

import (
	"time"

	"github.com/brkpoint/tournament-platform/models"
)

// Чистые предикаты над уже закоммиченным состоянием. Никаких побочных
// эффектов: вызывающая сторона сама загружает слоты и матчи.

// TableIsFree — свободен ли стол на интервале относительно набора
// закоммиченных слотов.
func TableIsFree(slots []models.ScheduleSlot, tableID int, iv Interval) bool {
	for _, s := range slots {
		if s.TableID != tableID {
			continue
		}
		if iv.Overlaps(Interval{Start: s.StartAt, End: s.EndAt}) {
			return false
		}
	}
	return true
}

// PlayerIsFree — свободен ли участник на интервале. Игрок занят от начала
// своего матча до его конца плюс rest-буфер.
func PlayerIsFree(matches []*models.Match, participantID int, iv Interval, matchDuration, restTime time.Duration) bool {
	for _, m := range matches {
		if m.ScheduledAt == nil || !m.HasParticipant(participantID) {
			continue
		}
		busy := Interval{
			Start: *m.ScheduledAt,
			End:   m.ScheduledAt.Add(matchDuration + restTime),
		}
		if iv.Overlaps(busy) {
			return false
		}
	}
	return true
}
