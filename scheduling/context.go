package scheduling

import (
	"time"

	"github.com/brkpoint/tournament-platform/models"
)

// Options — параметры одного прогона планировщика.
type Options struct {
	MatchDuration time.Duration
	RestTime      time.Duration

	// FeatureTableID — явно назначенный "телевизионный" стол; дополняет
	// эвристику по имени стола.
	FeatureTableID *int
}

// Placement — выбранная пара (стол, интервал) для одного матча.
type Placement struct {
	TableID int
	Start   time.Time
	End     time.Time
}

// Context хранит локальное для одного прогона состояние доступности столов
// и игроков. Контекст никогда не разделяется между конкурентными вызовами;
// сериализацию по турниру обеспечивает вызывающая сторона.
type Context struct {
	tables []models.Table
	opts   Options
	floor  time.Time

	tableNext  map[int]time.Time
	playerNext map[int]time.Time
}

// NewContext создаёт контекст, где каждый стол свободен с floor, а игрок
// без записи свободен с floor.
func NewContext(tables []models.Table, floor time.Time, opts Options) *Context {
	c := &Context{
		tables:     tables,
		opts:       opts,
		floor:      floor,
		tableNext:  make(map[int]time.Time, len(tables)),
		playerNext: make(map[int]time.Time),
	}
	for _, t := range tables {
		c.tableNext[t.ID] = floor
	}
	return c
}

// ObserveSlot учитывает уже существующий закоммиченный слот, чтобы
// повторный прогон не передвоил стол.
func (c *Context) ObserveSlot(tableID int, endAt time.Time) {
	if endAt.After(c.tableNext[tableID]) {
		c.tableNext[tableID] = endAt
	}
}

// ObservePlayerBusy учитывает уже назначенный матч участника: игрок занят
// до конца матча плюс rest-буфер.
func (c *Context) ObservePlayerBusy(participantID int, matchEnd time.Time) {
	until := matchEnd.Add(c.opts.RestTime)
	if until.After(c.playerNext[participantID]) {
		c.playerNext[participantID] = until
	}
}

// Commit фиксирует размещение: стол занят до конца матча, оба участника —
// до конца матча плюс rest-буфер. Последующие матчи прогона видят эффект.
func (c *Context) Commit(m *models.Match, p Placement) {
	c.tableNext[p.TableID] = p.End
	restUntil := p.End.Add(c.opts.RestTime)
	if m.P1ParticipantID != nil {
		c.playerNext[*m.P1ParticipantID] = restUntil
	}
	if m.P2ParticipantID != nil {
		c.playerNext[*m.P2ParticipantID] = restUntil
	}
}

// PlayerAvailableAt — максимум отслеженных времён доступности участников
// матча, не раньше floor.
func (c *Context) PlayerAvailableAt(m *models.Match) time.Time {
	at := c.floor
	for _, pid := range []*int{m.P1ParticipantID, m.P2ParticipantID} {
		if pid == nil {
			continue
		}
		if next, ok := c.playerNext[*pid]; ok && next.After(at) {
			at = next
		}
	}
	return at
}

func (c *Context) tableAvailableAt(tableID int) time.Time {
	if next, ok := c.tableNext[tableID]; ok {
		return next
	}
	return c.floor
}
