package brain

import (
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
	"github.com/hollowmere/npcmind/internal/personality"
)

func testBrain(cfg Config, collab Collaborators) (*Brain, *float64) {
	now := new(float64)
	cfg.Seed = 42
	b := NewBrain(cfg, func() float64 { return *now }, collab, zap.NewNop())
	b.Enable()
	return b, now
}

func stim(kind domain.StimulusKind, tag domain.Tag, intensity float32) domain.Stimulus {
	return domain.Stimulus{Kind: kind, Tag: tag, Intensity: intensity}
}

type stubNeeds struct {
	levels    map[domain.NeedKind]float32
	urgent    bool
	wellbeing float32
}

func (s *stubNeeds) Levels() map[domain.NeedKind]float32 { return s.levels }
func (s *stubNeeds) HasUrgent() bool                     { return s.urgent }
func (s *stubNeeds) OverallWellbeing() float32           { return s.wellbeing }

type stubPersonality struct {
	traits map[domain.TraitKind]float32
	modify func(domain.Intent) domain.Intent
}

func (s *stubPersonality) Traits() map[domain.TraitKind]float32 { return s.traits }
func (s *stubPersonality) ModifyIntent(i domain.Intent) domain.Intent {
	if s.modify != nil {
		return s.modify(i)
	}
	return i
}

type stubMemory struct {
	entries []domain.MemoryEntry
}

func (s *stubMemory) Recall(domain.Tag) []domain.MemoryEntry { return s.entries }

type stubStrategy struct {
	decide    func(InputVector) (domain.Intent, bool)
	curiosity func() (domain.Intent, bool)
}

func (s *stubStrategy) DecideIntent(v InputVector) (domain.Intent, bool) {
	if s.decide != nil {
		return s.decide(v)
	}
	return domain.Intent{}, false
}

func (s *stubStrategy) CuriosityIntent() (domain.Intent, bool) {
	if s.curiosity != nil {
		return s.curiosity()
	}
	return domain.Intent{}, false
}

type stubExecutor struct {
	accept  bool
	started []domain.Intent
}

func (s *stubExecutor) CanExecute(domain.Intent) bool { return s.accept }
func (s *stubExecutor) StartExecution(i domain.Intent) {
	s.started = append(s.started, i)
}

func TestLifecycle_EnableDisable(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})
	if b.State() != domain.StateProcessing {
		t.Fatalf("state after enable = %v", b.State())
	}

	b.Disable()
	if b.State() != domain.StateInactive {
		t.Fatalf("state after disable = %v", b.State())
	}

	// Disabled brains ignore everything and keep the last intent.
	before, _ := b.CurrentIntent()
	b.Ingest(stim(domain.StimulusAudio, "noise.crash", 0.95))
	b.Update(100)
	after, has := b.CurrentIntent()
	if has || after.Tag != before.Tag || after.CreatedAt != before.CreatedAt {
		t.Error("disabled brain changed its intent")
	}
}

func TestIngest_HighIntensityInterrupts(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})

	got := b.Ingest(stim(domain.StimulusAudio, "noise.explosion", 0.9))

	if got.Tag != "investigate.sound" || got.Priority != domain.PriorityHigh {
		t.Errorf("interrupt intent = %+v", got)
	}
	if adopted, has := b.CurrentIntent(); !has || adopted.Tag != got.Tag {
		t.Error("interrupt intent was not adopted synchronously")
	}
}

func TestIngest_LowIntensityDoesNotDecide(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})

	b.Ingest(stim(domain.StimulusVisual, "wildlife.deer", 0.4))

	if _, has := b.CurrentIntent(); has {
		t.Error("low intensity stimulus forced a decision")
	}
}

func TestIngest_BufferCapDropsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTrackedStimuli = 3
	b, _ := testBrain(cfg, Collaborators{})

	for i := 0; i < 5; i++ {
		b.Ingest(stim(domain.StimulusVisual, "crowd.person", 0.2))
	}

	if n := b.StimulusCount(); n != 3 {
		t.Errorf("buffer holds %d stimuli, want 3", n)
	}
}

func TestBuildInputVector_MaxPerKindNotSum(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})
	b.Ingest(stim(domain.StimulusVisual, "crowd.person", 0.4))
	b.Ingest(stim(domain.StimulusVisual, "crowd.person", 0.6))
	b.Ingest(stim(domain.StimulusVisual, "fire.spreading", 0.5))

	vec := b.BuildInputVector()

	if got := vec.Signals[domain.StimulusVisual]; got != 0.6 {
		t.Errorf("visual signal = %v, want max 0.6 not a sum", got)
	}
	if vec.StrongestTag != "crowd.person" {
		t.Errorf("strongest tag = %v", vec.StrongestTag)
	}
}

func TestBuildInputVector_AgeDecay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StimuliMemoryDuration = 10
	b, now := testBrain(cfg, Collaborators{})

	b.Ingest(stim(domain.StimulusAudio, "noise.shout", 0.6))
	*now = 5

	vec := b.BuildInputVector()
	if got := vec.Signals[domain.StimulusAudio]; got < 0.299 || got > 0.301 {
		t.Errorf("half-aged signal = %v, want 0.3", got)
	}

	*now = 11
	vec = b.BuildInputVector()
	if got := vec.Signals[domain.StimulusAudio]; got != 0 {
		t.Errorf("expired signal = %v, want 0", got)
	}
}

func TestBuildInputVector_NilCollaboratorsNeutral(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})

	vec := b.BuildInputVector()

	if vec.Wellbeing != 0.5 {
		t.Errorf("wellbeing without needs = %v, want neutral 0.5", vec.Wellbeing)
	}
	if vec.HasUrgentNeeds {
		t.Error("urgency reported without a needs source")
	}
}

func TestBuildInputVector_MergesCollaborators(t *testing.T) {
	needs := &stubNeeds{
		levels:    map[domain.NeedKind]float32{domain.NeedHunger: 0.9},
		urgent:    true,
		wellbeing: 0.2,
	}
	pers := &stubPersonality{traits: map[domain.TraitKind]float32{domain.TraitCaution: 0.7}}
	mem := &stubMemory{entries: []domain.MemoryEntry{
		{Relevance: domain.RelevanceCritical, Strength: 0.8, Permanent: true},
	}}
	b, _ := testBrain(DefaultConfig(), Collaborators{Needs: needs, Personality: pers, Memory: mem})
	b.Ingest(stim(domain.StimulusVisual, "fire.spreading", 0.5))

	vec := b.BuildInputVector()

	if vec.Needs[domain.NeedHunger] != 0.9 || !vec.HasUrgentNeeds || vec.Wellbeing != 0.2 {
		t.Errorf("needs merge = %+v", vec)
	}
	if vec.Traits[domain.TraitCaution] != 0.7 {
		t.Errorf("trait merge = %v", vec.Traits)
	}
	if vec.Familiarity != 0.8 {
		t.Errorf("familiarity = %v, want 0.8", vec.Familiarity)
	}
}

func TestGenerateIntent_TieredRule(t *testing.T) {
	cases := []struct {
		name     string
		kind     domain.StimulusKind
		strength float32
		wantTag  domain.Tag
		wantPri  domain.Priority
	}{
		{"world event high", domain.StimulusWorldEvent, 0.75, "react.world_event", domain.PriorityHigh},
		{"audio high", domain.StimulusAudio, 0.75, "investigate.sound", domain.PriorityHigh},
		{"visual high", domain.StimulusVisual, 0.75, "idle.observe", domain.PriorityMedium},
		{"touch high", domain.StimulusTouch, 0.75, "alert.general", domain.PriorityMedium},
		{"mid band", domain.StimulusVisual, 0.5, "idle.observe", domain.PriorityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, _ := testBrain(DefaultConfig(), Collaborators{})
			b.Ingest(stim(tc.kind, "anything.here", tc.strength))

			got := b.GenerateIntent()
			if got.Tag != tc.wantTag || got.Priority != tc.wantPri {
				t.Errorf("intent = %v/%v, want %v/%v", got.Tag, got.Priority, tc.wantTag, tc.wantPri)
			}
			if got.Confidence != tc.strength {
				t.Errorf("confidence = %v, want the driving strength %v", got.Confidence, tc.strength)
			}
		})
	}
}

func TestGenerateIntent_ConfidentlyIdle(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})

	got := b.GenerateIntent()

	if got.Tag != DefaultIdleIntent || got.Priority != domain.PriorityIdle {
		t.Errorf("idle intent = %+v", got)
	}
	if got.Confidence != 0.8 {
		t.Errorf("idle confidence = %v, want fixed 0.8", got.Confidence)
	}
}

func TestGenerateIntent_StrategyTakesPrecedence(t *testing.T) {
	strategy := &stubStrategy{decide: func(InputVector) (domain.Intent, bool) {
		return domain.Intent{Tag: "ritual.dance", Priority: domain.PriorityLow, Confidence: 0.9}, true
	}}
	b, _ := testBrain(DefaultConfig(), Collaborators{Strategy: strategy})
	b.Ingest(stim(domain.StimulusAudio, "noise.shout", 0.75))

	if got := b.GenerateIntent(); got.Tag != "ritual.dance" {
		t.Errorf("intent = %v, want the strategy's pick", got.Tag)
	}
}

func TestGenerateIntent_DecliningStrategyFallsBack(t *testing.T) {
	strategy := &stubStrategy{decide: func(InputVector) (domain.Intent, bool) {
		return domain.Intent{}, false
	}}
	b, _ := testBrain(DefaultConfig(), Collaborators{Strategy: strategy})
	b.Ingest(stim(domain.StimulusAudio, "noise.shout", 0.75))

	if got := b.GenerateIntent(); got.Tag != "investigate.sound" {
		t.Errorf("intent = %v, want the rule-based fallback", got.Tag)
	}
}

func TestGenerateIntent_ModulationAppliesToStrategyIntent(t *testing.T) {
	strategy := &stubStrategy{decide: func(InputVector) (domain.Intent, bool) {
		return domain.Intent{Tag: "combat.charge", Priority: domain.PriorityHigh, Confidence: 0.5}, true
	}}
	pers := &stubPersonality{modify: func(i domain.Intent) domain.Intent {
		i.Confidence = 0.25
		return i
	}}
	b, _ := testBrain(DefaultConfig(), Collaborators{Strategy: strategy, Personality: pers})

	if got := b.GenerateIntent(); got.Confidence != 0.25 {
		t.Errorf("confidence = %v, modulation skipped for strategy intent", got.Confidence)
	}
}

func TestDecide_InvalidCandidateKeepsPrevious(t *testing.T) {
	pers := &stubPersonality{modify: func(i domain.Intent) domain.Intent {
		i.Confidence = 5 // corrupt every candidate
		return i
	}}
	b, _ := testBrain(DefaultConfig(), Collaborators{Personality: pers})

	broadcasts := 0
	b.OnIntentChanged(func(domain.Intent) { broadcasts++ })

	b.GenerateIntent()

	if b.State() != domain.StateProcessing {
		t.Errorf("state after failed validation = %v, want processing", b.State())
	}
	if _, has := b.CurrentIntent(); has {
		t.Error("invalid candidate was adopted")
	}
	if broadcasts != 0 {
		t.Errorf("invalid candidate broadcast %d times", broadcasts)
	}
}

func TestCuriosity_ActivatesAfterSilence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CuriosityThreshold = 30
	b, now := testBrain(cfg, Collaborators{})

	for i := 0; i < 31; i++ {
		*now += 1
		b.Update(1)
	}

	got, has := b.CurrentIntent()
	if !has {
		t.Fatal("no intent after 31s of silence")
	}
	if got.Priority != domain.PriorityLow || got.Confidence != 0.6 {
		t.Errorf("curiosity intent = %+v, want priority low confidence 0.6", got)
	}
	found := false
	for _, tag := range DefaultCuriosityIntents() {
		if got.Tag == tag {
			found = true
		}
	}
	if !found {
		t.Errorf("curiosity tag %v not drawn from the configured set", got.Tag)
	}
}

func TestCuriosity_ConfidenceFixedUnderRealPersonality(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CuriosityThreshold = 30
	pers := personality.NewModulator(personality.DefaultConfig(), zap.NewNop())
	b, now := testBrain(cfg, Collaborators{Personality: pers})

	for i := 0; i < 31; i++ {
		*now += 1
		b.Update(1)
	}

	got, has := b.CurrentIntent()
	if !has {
		t.Fatal("no intent after 31s of silence")
	}
	if got.Confidence != 0.6 {
		t.Errorf("curiosity confidence = %v, want fixed 0.6 even with traits wired", got.Confidence)
	}
	if got.Priority != domain.PriorityLow {
		t.Errorf("curiosity priority = %v, want low", got.Priority)
	}
}

func TestCuriosity_HookTakesPrecedence(t *testing.T) {
	strategy := &stubStrategy{curiosity: func() (domain.Intent, bool) {
		return domain.Intent{Tag: "patrol.perimeter", Priority: domain.PriorityLow, Confidence: 0.7}, true
	}}
	cfg := DefaultConfig()
	cfg.CuriosityThreshold = 5
	b, now := testBrain(cfg, Collaborators{Strategy: strategy})

	*now = 6
	b.Update(6)

	if got, _ := b.CurrentIntent(); got.Tag != "patrol.perimeter" {
		t.Errorf("curiosity intent = %v, want the hook's pick", got.Tag)
	}
}

func TestCuriosity_SilenceTimerResets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CuriosityThreshold = 5
	b, now := testBrain(cfg, Collaborators{})

	broadcasts := 0
	b.OnIntentChanged(func(domain.Intent) { broadcasts++ })

	*now = 6
	b.Update(6)
	*now = 7
	b.Update(1) // only 1s of fresh silence

	if broadcasts != 1 {
		t.Errorf("curiosity fired %d times, want 1 per silence window", broadcasts)
	}
}

func TestUpdate_PrunesGenerousWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StimuliMemoryDuration = 10
	b, now := testBrain(cfg, Collaborators{})

	b.Ingest(stim(domain.StimulusVisual, "crowd.person", 0.2))

	*now = 12 // older than active window, inside 1.5x
	b.Update(12)
	if n := b.StimulusCount(); n != 1 {
		t.Fatalf("stimulus dropped inside the generous window, count = %d", n)
	}

	*now = 16 // past 1.5x
	b.Update(4)
	if n := b.StimulusCount(); n != 0 {
		t.Errorf("stimulus survived past 1.5x window, count = %d", n)
	}
}

func TestExecutor_DeclineSettlesIdle(t *testing.T) {
	ex := &stubExecutor{accept: false}
	b, _ := testBrain(DefaultConfig(), Collaborators{Executor: ex})

	b.Ingest(stim(domain.StimulusAudio, "noise.explosion", 0.9))

	if b.State() != domain.StateIdle {
		t.Errorf("state after executor decline = %v, want idle", b.State())
	}
	if len(ex.started) != 0 {
		t.Error("declined intent was still started")
	}
}

func TestExecutor_AcceptExecutes(t *testing.T) {
	ex := &stubExecutor{accept: true}
	b, _ := testBrain(DefaultConfig(), Collaborators{Executor: ex})

	b.Ingest(stim(domain.StimulusAudio, "noise.explosion", 0.9))

	if b.State() != domain.StateExecuting {
		t.Errorf("state = %v, want executing", b.State())
	}
	if len(ex.started) != 1 || ex.started[0].Tag != "investigate.sound" {
		t.Errorf("executor started %+v", ex.started)
	}

	b.Update(1) // no new decision settles execution
	if b.State() != domain.StateIdle {
		t.Errorf("state after quiet update = %v, want idle", b.State())
	}
}

func TestOnIntentChanged_SubscriptionOrder(t *testing.T) {
	b, _ := testBrain(DefaultConfig(), Collaborators{})

	var order []int
	for _, id := range []int{7, 3, 9} {
		id := id
		b.OnIntentChanged(func(domain.Intent) { order = append(order, id) })
	}

	b.Ingest(stim(domain.StimulusAudio, "noise.explosion", 0.9))

	want := []int{7, 3, 9}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("broadcast order = %v, want %v", order, want)
		}
	}
}

func TestGenerateIntent_AlwaysValid(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	kinds := []domain.StimulusKind{
		domain.StimulusVisual, domain.StimulusAudio, domain.StimulusTouch,
		domain.StimulusMemory, domain.StimulusWorldEvent, domain.StimulusInternal,
	}
	tags := []domain.Tag{"combat.melee", "social.trade", "explore.cave", "noise.wind", "fire.spreading"}

	for i := 0; i < 10000; i++ {
		needs := &stubNeeds{
			levels:    map[domain.NeedKind]float32{domain.NeedHunger: rng.Float32()},
			urgent:    rng.Intn(2) == 0,
			wellbeing: rng.Float32(),
		}
		pers := &stubPersonality{
			traits: map[domain.TraitKind]float32{domain.TraitAggression: rng.Float32()},
			modify: func(in domain.Intent) domain.Intent {
				in.Confidence = clampedScale(in.Confidence, 0.5+rng.Float32())
				return in
			},
		}
		b, now := testBrain(DefaultConfig(), Collaborators{Needs: needs, Personality: pers})

		for s := rng.Intn(6); s > 0; s-- {
			b.Ingest(stim(kinds[rng.Intn(len(kinds))], tags[rng.Intn(len(tags))], rng.Float32()))
			*now += rng.Float64() * 5
		}

		got := b.GenerateIntent()
		if !got.Tag.Valid() {
			t.Fatalf("iteration %d produced an empty tag", i)
		}
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Fatalf("iteration %d produced confidence %v", i, got.Confidence)
		}
	}
}

func clampedScale(v, factor float32) float32 {
	v *= factor
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
