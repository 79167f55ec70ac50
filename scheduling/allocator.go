package scheduling

import (
	"strings"

	"github.com/brkpoint/tournament-platform/models"
)

const topSeedThreshold = 4

// MatchIsImportant — важные матчи получают приоритетный доступ к
// feature-столам: поздние раунды, гранд-финал, либо участие топ-сида
// начиная со второго раунда.
func MatchIsImportant(m *models.Match, seeds map[int]int) bool {
	if m.Round >= 3 || m.IsGrandFinal {
		return true
	}
	if m.Round >= 2 {
		for _, pid := range []*int{m.P1ParticipantID, m.P2ParticipantID} {
			if pid == nil {
				continue
			}
			if seed, ok := seeds[*pid]; ok && seed >= 1 && seed <= topSeedThreshold {
				return true
			}
		}
	}
	return false
}

// isFeatureTable — эвристика по имени плюс явно назначенный стол.
func isFeatureTable(t models.Table, designatedID *int) bool {
	if designatedID != nil && t.ID == *designatedID {
		return true
	}
	name := strings.ToLower(t.Name)
	return strings.Contains(name, "tv") || strings.Contains(name, "feature")
}

// FindEarliestSlot ищет самую раннюю допустимую пару (стол, старт) для
// матча. Поиск не заглядывает вперёд дальше отслеженных времён доступности:
// если ни один стол не подходит, матч пропускается и остаётся pending.
//
// seeds — отображение participantID -> seed для эвристики важности.
func (c *Context) FindEarliestSlot(m *models.Match, seeds map[int]int) (Placement, bool) {
	if len(c.tables) == 0 {
		return Placement{}, false
	}

	playerAvailable := c.PlayerAvailableAt(m)

	// Важный матч сначала пробует feature-стол, свободный прямо к моменту
	// готовности игроков.
	if MatchIsImportant(m, seeds) {
		for _, t := range c.tables {
			if !isFeatureTable(t, c.opts.FeatureTableID) {
				continue
			}
			if !c.tableAvailableAt(t.ID).After(playerAvailable) {
				return Placement{
					TableID: t.ID,
					Start:   playerAvailable,
					End:     playerAvailable.Add(c.opts.MatchDuration),
				}, true
			}
		}
	}

	// Общий проход: для каждого стола старт — максимум готовности игроков
	// и освобождения стола; берём стол с самым ранним стартом, при
	// равенстве — первый в стабильном порядке.
	best := Placement{}
	found := false
	for _, t := range c.tables {
		start := playerAvailable
		if next := c.tableAvailableAt(t.ID); next.After(start) {
			start = next
		}
		if !found || start.Before(best.Start) {
			best = Placement{TableID: t.ID, Start: start, End: start.Add(c.opts.MatchDuration)}
			found = true
		}
	}
	return best, found
}
