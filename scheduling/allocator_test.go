package scheduling

import (
	"testing"
	"time"

	"github.com/brkpoint/tournament-platform/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultOpts = Options{
	MatchDuration: 45 * time.Minute,
	RestTime:      30 * time.Minute,
}

func twoTables() []models.Table {
	return []models.Table{
		{ID: 1, Name: "Table 1"},
		{ID: 2, Name: "Table 2"},
	}
}

func pendingMatch(id, round int, p1, p2 int) *models.Match {
	return &models.Match{
		ID:              id,
		Round:           round,
		Bracket:         models.BracketSideWinner,
		Status:          models.MatchStatusPending,
		P1ParticipantID: intRef(p1),
		P2ParticipantID: intRef(p2),
	}
}

func TestMatchIsImportant(t *testing.T) {
	seeds := map[int]int{10: 1, 11: 7, 12: 4}

	assert.True(t, MatchIsImportant(pendingMatch(1, 3, 20, 21), nil), "round 3+ is always important")
	assert.True(t, MatchIsImportant(&models.Match{Round: 1, IsGrandFinal: true}, nil))
	assert.True(t, MatchIsImportant(pendingMatch(1, 2, 10, 11), seeds), "top seed in round 2")
	assert.True(t, MatchIsImportant(pendingMatch(1, 2, 11, 12), seeds), "seed 4 still counts")
	assert.False(t, MatchIsImportant(pendingMatch(1, 2, 11, 13), seeds), "seed 7 is not a top seed")
	assert.False(t, MatchIsImportant(pendingMatch(1, 1, 10, 11), seeds), "round 1 never important without grand final")
}

func TestFindEarliestSlotSpreadsAcrossTables(t *testing.T) {
	ctx := NewContext(twoTables(), at(9, 0), defaultOpts)

	m1 := pendingMatch(1, 1, 10, 11)
	p1, ok := ctx.FindEarliestSlot(m1, nil)
	require.True(t, ok)
	assert.Equal(t, 1, p1.TableID)
	assert.Equal(t, at(9, 0), p1.Start)
	ctx.Commit(m1, p1)

	// Второй матч первого раунда уходит на свободный второй стол в то же
	// время, а не в очередь за первым.
	m2 := pendingMatch(2, 1, 12, 13)
	p2, ok := ctx.FindEarliestSlot(m2, nil)
	require.True(t, ok)
	assert.Equal(t, 2, p2.TableID)
	assert.Equal(t, at(9, 0), p2.Start)
	ctx.Commit(m2, p2)
}

func TestFindEarliestSlotRespectsRestTime(t *testing.T) {
	ctx := NewContext(twoTables(), at(9, 0), defaultOpts)

	m1 := pendingMatch(1, 1, 10, 11)
	p1, _ := ctx.FindEarliestSlot(m1, nil)
	ctx.Commit(m1, p1)
	m2 := pendingMatch(2, 1, 12, 13)
	p2, _ := ctx.FindEarliestSlot(m2, nil)
	ctx.Commit(m2, p2)

	// Матч второго раунда между победителями: оба играли 09:00-09:45,
	// отдых 30 минут — старт не раньше 10:15, хотя столы свободны с 09:45.
	m3 := pendingMatch(3, 2, 10, 12)
	p3, ok := ctx.FindEarliestSlot(m3, nil)
	require.True(t, ok)
	assert.Equal(t, at(10, 15), p3.Start)
	assert.Equal(t, at(11, 0), p3.End)
}

func TestFindEarliestSlotDeterministicTieBreak(t *testing.T) {
	// Оба стола свободны одинаково: всегда выбирается первый в порядке списка.
	for i := 0; i < 5; i++ {
		ctx := NewContext(twoTables(), at(9, 0), defaultOpts)
		p, ok := ctx.FindEarliestSlot(pendingMatch(1, 1, 10, 11), nil)
		require.True(t, ok)
		assert.Equal(t, 1, p.TableID)
	}
}

func TestFindEarliestSlotPrefersFeatureTableForImportantMatches(t *testing.T) {
	tables := []models.Table{
		{ID: 1, Name: "Table 1"},
		{ID: 2, Name: "TV Table"},
	}
	ctx := NewContext(tables, at(9, 0), defaultOpts)

	// Важный матч идёт на TV-стол, даже когда обычный стол тоже свободен.
	final := pendingMatch(1, 3, 10, 11)
	p, ok := ctx.FindEarliestSlot(final, nil)
	require.True(t, ok)
	assert.Equal(t, 2, p.TableID)

	// Обычный матч первого раунда берёт первый свободный по порядку.
	ordinary := pendingMatch(2, 1, 12, 13)
	p2, ok := ctx.FindEarliestSlot(ordinary, nil)
	require.True(t, ok)
	assert.Equal(t, 1, p2.TableID)
}

func TestFindEarliestSlotFeatureTableByDesignatedID(t *testing.T) {
	tables := twoTables()
	opts := defaultOpts
	opts.FeatureTableID = intRef(2)
	ctx := NewContext(tables, at(9, 0), opts)

	p, ok := ctx.FindEarliestSlot(pendingMatch(1, 3, 10, 11), nil)
	require.True(t, ok)
	assert.Equal(t, 2, p.TableID)
}

func TestFindEarliestSlotBusyFeatureTableFallsBack(t *testing.T) {
	tables := []models.Table{
		{ID: 1, Name: "Table 1"},
		{ID: 2, Name: "TV Table"},
	}
	ctx := NewContext(tables, at(9, 0), defaultOpts)
	// TV-стол занят до 11:00.
	ctx.ObserveSlot(2, at(11, 0))

	// Feature-стол не свободен к готовности игроков — важный матч уходит в
	// общий проход и садится на обычный стол без ожидания.
	p, ok := ctx.FindEarliestSlot(pendingMatch(1, 3, 10, 11), nil)
	require.True(t, ok)
	assert.Equal(t, 1, p.TableID)
	assert.Equal(t, at(9, 0), p.Start)
}

func TestFindEarliestSlotNoTables(t *testing.T) {
	ctx := NewContext(nil, at(9, 0), defaultOpts)
	_, ok := ctx.FindEarliestSlot(pendingMatch(1, 1, 10, 11), nil)
	assert.False(t, ok)
}

func TestContextObserveSeedsCommittedState(t *testing.T) {
	ctx := NewContext(twoTables(), at(9, 0), defaultOpts)

	// Повторный прогон видит уже закоммиченные слоты и занятость игроков.
	ctx.ObserveSlot(1, at(9, 45))
	ctx.ObservePlayerBusy(10, at(9, 45))

	m := pendingMatch(3, 2, 10, 14)
	p, ok := ctx.FindEarliestSlot(m, nil)
	require.True(t, ok)
	// Игрок 10 отдыхает до 10:15; раньше старт невозможен, а при равном
	// старте выбирается первый стол по порядку.
	assert.Equal(t, at(10, 15), p.Start)
	assert.Equal(t, 1, p.TableID)
}
