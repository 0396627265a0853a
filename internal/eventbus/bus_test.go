package eventbus

import (
	"testing"

	"go.uber.org/zap"

	"github.com/hollowmere/npcmind/internal/domain"
)

func testBus(cfg Config) (*Bus, *float64) {
	now := new(float64)
	b := New(cfg, func() float64 { return *now }, zap.NewNop())
	return b, now
}

func collect(events *[]domain.Event) DeliverFunc {
	return func(e domain.Event) { *events = append(*events, e) }
}

func at(x float64) func() domain.Vec3 {
	return func() domain.Vec3 { return domain.Vec3{X: x} }
}

func TestPublish_RejectsInvalid(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var got []domain.Event
	b.Subscribe(1, nil, at(0), collect(&got))

	tests := []struct {
		name  string
		event domain.Event
	}{
		{"empty type", domain.Event{Strength: 0.5}},
		{"strength above one", domain.Event{Type: "combat", Strength: 1.2}},
		{"strength negative", domain.Event{Type: "combat", Strength: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.Publish(tt.event); err == nil {
				t.Fatal("expected publish error")
			}
		})
	}

	if len(got) != 0 {
		t.Errorf("invalid events were delivered: %d", len(got))
	}
	if b.Stats().Dropped != 3 {
		t.Errorf("dropped = %d, want 3", b.Stats().Dropped)
	}
}

func TestPublish_RadiusGate(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var near, far []domain.Event
	b.Subscribe(1, nil, at(499), collect(&near))
	b.Subscribe(2, nil, at(501), collect(&far))

	e := domain.NewEvent("combat.melee", domain.Vec3{}, 0.9, 0)
	e.Radius = 500
	if err := b.Publish(e); err != nil {
		t.Fatal(err)
	}

	if len(near) != 1 {
		t.Errorf("subscriber at 499 got %d events, want 1", len(near))
	}
	if len(far) != 0 {
		t.Errorf("subscriber at 501 got %d events, want 0", len(far))
	}
}

func TestPublish_UnboundedRadiusReachesEveryone(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var got []domain.Event
	b.Subscribe(1, nil, at(1e6), collect(&got))

	// Radius zero means no spatial bound, not zero reach.
	if err := b.Publish(domain.NewEvent("weather.storm", domain.Vec3{}, 0.6, 0)); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Fatalf("unbounded event not delivered, got %d", len(got))
	}
}

func TestPublish_GlobalIgnoresDistanceAndFilter(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var got []domain.Event
	b.Subscribe(1, []domain.Tag{"social"}, at(1e6), collect(&got))

	e := domain.NewEvent("world.dawn", domain.Vec3{}, 0.3, 0)
	e.Radius = 10
	e.Global = true
	if err := b.Publish(e); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Fatalf("global event not delivered, got %d", len(got))
	}
}

func TestPublish_TagHierarchyFilter(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var got []domain.Event
	b.Subscribe(1, []domain.Tag{"combat"}, at(0), collect(&got))

	pub := func(tag domain.Tag) {
		if err := b.Publish(domain.NewEvent(tag, domain.Vec3{}, 0.5, 0)); err != nil {
			t.Fatal(err)
		}
	}

	pub("combat.melee.sword") // matches
	pub("combat")             // matches
	pub("combatant.arrives")  // prefix of the string but not of the hierarchy
	pub("social.trade")       // no match

	if len(got) != 2 {
		t.Fatalf("delivered %d events, want 2", len(got))
	}
	if got[0].Type != "combat.melee.sword" || got[1].Type != "combat" {
		t.Errorf("unexpected delivery order: %v, %v", got[0].Type, got[1].Type)
	}
}

func TestPublish_DeliveryOrderIsSubscriptionOrder(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var order []domain.AgentID
	for _, id := range []domain.AgentID{7, 3, 9} {
		id := id
		b.Subscribe(id, nil, at(0), func(domain.Event) { order = append(order, id) })
	}

	if err := b.Publish(domain.NewEvent("world.tick", domain.Vec3{}, 0.1, 0)); err != nil {
		t.Fatal(err)
	}

	want := []domain.AgentID{7, 3, 9}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("delivery order = %v, want %v", order, want)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	var got []domain.Event
	b.Subscribe(1, nil, at(0), collect(&got))
	b.Unsubscribe(1)
	b.Unsubscribe(42) // unknown id is a no-op

	if err := b.Publish(domain.NewEvent("combat", domain.Vec3{}, 0.5, 0)); err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("unsubscribed subscriber still received %d events", len(got))
	}
}

func TestQuery_WindowAndOrder(t *testing.T) {
	b, now := testBus(DefaultConfig())

	for i := 0; i < 5; i++ {
		*now = float64(i * 10)
		e := domain.NewEvent("social.trade", domain.Vec3{}, 0.5, *now)
		if err := b.Publish(e); err != nil {
			t.Fatal(err)
		}
	}

	*now = 40
	got := b.Query("social", 25, nil, 0)

	if len(got) != 3 {
		t.Fatalf("query returned %d events, want 3", len(got))
	}
	// Most recent first.
	if got[0].Timestamp != 40 || got[1].Timestamp != 30 || got[2].Timestamp != 20 {
		t.Errorf("query order wrong: %v %v %v", got[0].Timestamp, got[1].Timestamp, got[2].Timestamp)
	}
}

func TestPublish_RestampsBackdatedEvents(t *testing.T) {
	b, now := testBus(DefaultConfig())

	*now = 100
	if err := b.Publish(domain.NewEvent("trade.offer", domain.Vec3{}, 0.5, *now)); err != nil {
		t.Fatal(err)
	}

	// A caller-supplied stale timestamp must not break history ordering
	// and hide the event published above from windowed queries.
	stale := domain.NewEvent("trade.sale", domain.Vec3{}, 0.5, 50)
	if err := b.Publish(stale); err != nil {
		t.Fatal(err)
	}

	got := b.Query("trade", 20, nil, 0)
	if len(got) != 2 {
		t.Fatalf("query returned %d events, want 2", len(got))
	}
	if got[0].Timestamp != 100 || got[1].Timestamp != 100 {
		t.Errorf("timestamps = %v %v, want both restamped to 100", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestQuery_SpatialFilter(t *testing.T) {
	b, _ := testBus(DefaultConfig())

	near := domain.NewEvent("combat", domain.Vec3{X: 5}, 0.5, 0)
	far := domain.NewEvent("combat", domain.Vec3{X: 500}, 0.5, 0)
	if err := b.Publish(near); err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(far); err != nil {
		t.Fatal(err)
	}

	loc := domain.Vec3{}
	got := b.Query("combat", 100, &loc, 50)
	if len(got) != 1 {
		t.Fatalf("spatial query returned %d events, want 1", len(got))
	}
	if got[0].Location.X != 5 {
		t.Errorf("wrong event survived the spatial filter")
	}
}

func TestSweep_TTLAndCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistory = 3
	cfg.HistoryTTL = 100
	b, now := testBus(cfg)

	for i := 0; i < 6; i++ {
		*now = float64(i * 10)
		if err := b.Publish(domain.NewEvent("world.tick", domain.Vec3{}, 0.2, *now)); err != nil {
			t.Fatal(err)
		}
	}

	// All six are within TTL; capacity keeps only the newest three.
	*now = 60
	b.Sweep(*now)

	got := b.Query("world", 1000, nil, 0)
	if len(got) != 3 {
		t.Fatalf("history has %d events after capacity sweep, want 3", len(got))
	}
	if got[len(got)-1].Timestamp != 30 {
		t.Errorf("oldest surviving timestamp = %v, want 30", got[len(got)-1].Timestamp)
	}

	// Age everything past TTL.
	*now = 200
	b.Sweep(*now)
	if n := b.Stats().HistoryLen; n != 0 {
		t.Errorf("history has %d events after TTL sweep, want 0", n)
	}
}

func TestSweep_ExplicitDuration(t *testing.T) {
	b, now := testBus(DefaultConfig())

	e := domain.NewEvent("weather.rain", domain.Vec3{}, 0.4, 0)
	e.Duration = 30
	if err := b.Publish(e); err != nil {
		t.Fatal(err)
	}

	*now = 31
	if removed := b.Sweep(*now); removed != 1 {
		t.Errorf("sweep removed %d, want 1", removed)
	}
}

func TestSweep_Idempotent(t *testing.T) {
	b, now := testBus(DefaultConfig())

	for i := 0; i < 4; i++ {
		if err := b.Publish(domain.NewEvent("combat", domain.Vec3{}, 0.5, 0)); err != nil {
			t.Fatal(err)
		}
	}

	*now = 1000
	b.Sweep(*now)
	if removed := b.Sweep(*now); removed != 0 {
		t.Errorf("second sweep removed %d events, want 0", removed)
	}
}
