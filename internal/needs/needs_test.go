package needs

import (
	"testing"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

func need(kind domain.NeedKind, level, rate float32) domain.Need {
	n := domain.DefaultNeed(kind, rate)
	n.Level = level
	return n
}

func TestTick_ClampsToUnitRange(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.95, 1.0))
	s.Add(need(domain.NeedSafety, 0.05, -1.0))

	s.Tick(10)

	if got := s.Level(domain.NeedHunger); got != 1.0 {
		t.Errorf("hunger = %v, want clamped to 1", got)
	}
	if got := s.Level(domain.NeedSafety); got != 0.0 {
		t.Errorf("safety = %v, want clamped to 0", got)
	}
}

func TestTick_UrgentFiresExactlyOnce(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.5, 0.01))

	urgent := 0
	s.SetNotifyFunc(func(n domain.Need, c Change) {
		if c == ChangeUrgent {
			urgent++
		}
	})

	// 0.01/s drift: crosses 0.8 during the 31st second, then stays above.
	for i := 0; i < 60; i++ {
		s.Tick(1)
	}

	if urgent != 1 {
		t.Errorf("urgency fired %d times, want exactly 1", urgent)
	}
	if got := s.Level(domain.NeedHunger); got < 0.8 {
		t.Errorf("hunger = %v, expected to remain urgent", got)
	}
}

func TestTick_UrgentRefiresAfterRecovery(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.79, 0.02))

	urgent := 0
	s.SetNotifyFunc(func(n domain.Need, c Change) {
		if c == ChangeUrgent {
			urgent++
		}
	})

	s.Tick(1) // crosses 0.8
	s.Satisfy(domain.NeedHunger)
	for i := 0; i < 40; i++ { // climbs back past 0.8
		s.Tick(1)
	}

	if urgent != 2 {
		t.Errorf("urgency fired %d times across two episodes, want 2", urgent)
	}
}

func TestTick_SatisfiedEdge(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedFatigue, 0.25, -0.02))

	satisfied := 0
	s.SetNotifyFunc(func(n domain.Need, c Change) {
		if c == ChangeSatisfied {
			satisfied++
		}
	})

	for i := 0; i < 10; i++ {
		s.Tick(1)
	}

	if satisfied != 1 {
		t.Errorf("satisfaction fired %d times, want exactly 1", satisfied)
	}
}

func TestTick_ChangedRespectsEpsilon(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedSocial, 0.5, 0.001))

	changed := 0
	s.SetNotifyFunc(func(n domain.Need, c Change) {
		if c == ChangeLevel {
			changed++
		}
	})

	s.Tick(1)  // delta 0.001, below epsilon
	s.Tick(60) // delta 0.06, above

	if changed != 1 {
		t.Errorf("change fired %d times, want 1", changed)
	}
}

func TestTick_InactiveNeedsFrozen(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedCuriosity, 0.4, 0.1))
	s.SetActive(domain.NeedCuriosity, false)

	s.Tick(100)

	if got := s.Level(domain.NeedCuriosity); got != 0.4 {
		t.Errorf("inactive need drifted to %v", got)
	}
	if levels := s.Levels(); len(levels) != 0 {
		t.Errorf("inactive need exported in levels: %v", levels)
	}
}

func TestTick_GlobalMultiplier(t *testing.T) {
	s := NewSimulation(Config{GlobalMultiplier: 2.0}, zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.5, 0.05))

	s.Tick(1)

	if got := s.Level(domain.NeedHunger); got < 0.599 || got > 0.601 {
		t.Errorf("hunger = %v, want 0.6 under doubled drift", got)
	}
}

func TestSatisfy_SetsThresholdNotZero(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.9, 0.01))
	s.Tick(1) // marks urgent

	s.Satisfy(domain.NeedHunger)

	if got := s.Level(domain.NeedHunger); got != 0.2 {
		t.Errorf("level after satisfy = %v, want the satisfied threshold", got)
	}
	if s.HasUrgent() {
		t.Error("need still urgent after satisfy")
	}
}

func TestMostUrgent_PicksHighestLevel(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.85, 0.01))
	s.Add(need(domain.NeedFatigue, 0.95, 0.01))
	s.Add(need(domain.NeedSocial, 0.5, 0.01))
	s.Tick(0.001)

	kind, ok := s.MostUrgent()
	if !ok || kind != domain.NeedFatigue {
		t.Errorf("most urgent = %v (%v), want fatigue", kind, ok)
	}
}

func TestMostUrgent_NoneWhenCalm(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.5, 0.01))
	s.Tick(1)

	if _, ok := s.MostUrgent(); ok {
		t.Error("calm simulation reported an urgent need")
	}
}

func TestLevel_MissingNeedIsNeutral(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	if got := s.Level(domain.NeedComfort); got != 0.5 {
		t.Errorf("missing need level = %v, want neutral 0.5", got)
	}
}

func TestOverallWellbeing(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.2, 0))
	s.Add(need(domain.NeedFatigue, 0.6, 0))

	if got := s.OverallWellbeing(); got < 0.599 || got > 0.601 {
		t.Errorf("wellbeing = %v, want 0.6", got)
	}
}

func TestIntentSuggestions_OrderedByPressure(t *testing.T) {
	s := NewSimulation(DefaultConfig(), zap.NewNop())
	s.Add(need(domain.NeedHunger, 0.85, 0.001))
	s.Add(need(domain.NeedFatigue, 0.95, 0.001))
	s.Add(need(domain.NeedSocial, 0.3, 0.001))
	s.Tick(0.001)

	got := s.IntentSuggestions()
	want := []domain.Tag{"survival.rest", "survival.eat"}
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	s := NewDefaultSimulation(DefaultConfig(), zap.NewNop())
	s.Tick(100)

	restored := NewSimulation(DefaultConfig(), zap.NewNop())
	restored.Import(s.Export())

	for kind, level := range s.Levels() {
		if got := restored.Level(kind); got != level {
			t.Errorf("restored %v = %v, want %v", kind, got, level)
		}
	}
}
