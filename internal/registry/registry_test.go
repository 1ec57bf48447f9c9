package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/courtbot/internal/domain"
)

func signals(fav, und string) domain.MatchSignals {
	return domain.MatchSignals{Favorite: fav, Underdog: und}
}

func TestRegistry_UpsertCreatesAndUpdates(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewWithClock(func() time.Time { return now })

	s := signals("Ivanov D.", "Petrov K.")
	st := r.Upsert(s.ID(), s)
	assert.Equal(t, now, st.FirstSeen)
	assert.Equal(t, now, st.LastSeen)
	assert.False(t, st.Finished)

	now = now.Add(30 * time.Second)
	s.LiveScore = "1:0 (11-7)"
	st = r.Upsert(s.ID(), s)
	assert.Equal(t, now, st.LastSeen)
	assert.NotEqual(t, st.FirstSeen, st.LastSeen)
	assert.Equal(t, "1:0 (11-7)", st.LiveScore)
	assert.Len(t, r.All(), 1)
}

func TestRegistry_FinishedIsMonotonic(t *testing.T) {
	r := New()
	s := signals("A", "B")
	s.Finished = true
	r.Upsert(s.ID(), s)

	// una reaparición sin la marca no resucita el partido
	s.Finished = false
	st := r.Upsert(s.ID(), s)
	assert.True(t, st.Finished)
}

func TestRegistry_MarkFinishedIfAbsent(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewWithClock(func() time.Time { return now })

	stale := signals("A", "B")
	fresh := signals("C", "D")
	r.Upsert(stale.ID(), stale)

	now = now.Add(5 * time.Minute)
	r.Upsert(fresh.ID(), fresh)

	observed := map[string]bool{fresh.ID(): true}
	finished := r.MarkFinishedIfAbsent(observed, 2*time.Minute)
	require.Equal(t, []string{stale.ID()}, finished)

	st, ok := r.Get(stale.ID())
	require.True(t, ok)
	assert.True(t, st.Finished)

	// segunda pasada: idempotente, nada nuevo que terminar
	assert.Empty(t, r.MarkFinishedIfAbsent(observed, 2*time.Minute))
}

func TestRegistry_MarkFinishedRespectsStaleness(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewWithClock(func() time.Time { return now })

	s := signals("A", "B")
	r.Upsert(s.ID(), s)

	// ausente pero aún dentro del umbral: no se toca
	now = now.Add(time.Minute)
	assert.Empty(t, r.MarkFinishedIfAbsent(map[string]bool{}, 2*time.Minute))

	now = now.Add(5 * time.Minute)
	assert.Equal(t, []string{s.ID()}, r.MarkFinishedIfAbsent(map[string]bool{}, 2*time.Minute))
}

func TestRegistry_VerdictCache(t *testing.T) {
	r := New()
	s := signals("A", "B")
	r.Upsert(s.ID(), s)

	st, _ := r.Get(s.ID())
	assert.False(t, st.HasVerdict)

	r.SetVerdict(s.ID(), domain.Verdict{Score: 0.74, Badge: domain.BadgeGo, Stake: "A"})
	st, _ = r.Get(s.ID())
	require.True(t, st.HasVerdict)
	assert.Equal(t, domain.BadgeGo, st.Verdict.Badge)
}

func TestRegistry_MessageTracking(t *testing.T) {
	r := New()
	s := signals("A", "B")
	r.Upsert(s.ID(), s)

	r.SetMessage(s.ID(), "4217", "texto renderizado")
	st, _ := r.Get(s.ID())
	assert.Equal(t, "4217", st.MessageID)
	assert.Equal(t, "texto renderizado", st.LastText)
}

func TestRegistry_RestoreMessageCreatesEntry(t *testing.T) {
	r := New()
	r.RestoreMessage("x|y", "99", "texto previo")

	st, ok := r.Get("x|y")
	require.True(t, ok)
	assert.Equal(t, "99", st.MessageID)
	assert.Equal(t, "texto previo", st.LastText)
	assert.False(t, st.Finished)
}

func TestRegistry_FinalDeliveryIsSeparateFromFinished(t *testing.T) {
	r := New()
	s := signals("A", "B")
	r.Upsert(s.ID(), s)

	r.MarkFinishedIfAbsent(map[string]bool{}, 0)
	st, _ := r.Get(s.ID())
	assert.True(t, st.Finished)
	assert.False(t, st.FinalDelivered, "terminar no confirma la entrega final")

	r.SetFinalDelivered(s.ID())
	st, _ = r.Get(s.ID())
	assert.True(t, st.FinalDelivered)

	// id desconocido: no-op
	r.SetFinalDelivered("nadie|nunca")
}

func TestRegistry_Reset(t *testing.T) {
	r := New()
	s := signals("A", "B")
	r.Upsert(s.ID(), s)
	r.Reset()
	assert.Empty(t, r.All())
	_, ok := r.Get(s.ID())
	assert.False(t, ok)
}
