package domain

import (
	"errors"
	"testing"
)

func TestEventValidate(t *testing.T) {
	e := NewEvent("combat.ambush", Vec3{}, 0.5, 0)
	if err := e.Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	e.Type = ""
	if err := e.Validate(); !errors.Is(err, ErrEmptyEventType) {
		t.Errorf("empty type error = %v", err)
	}

	e = NewEvent("combat.ambush", Vec3{}, 1.5, 0)
	if err := e.Validate(); !errors.Is(err, ErrStrengthOutOfRange) {
		t.Errorf("strength error = %v", err)
	}
}

func TestEventExpired(t *testing.T) {
	e := NewEvent("weather.storm", Vec3{}, 0.5, 100)
	e.Duration = 10

	if e.Expired(105) {
		t.Error("event expired inside its duration")
	}
	if !e.Expired(111) {
		t.Error("event not expired past its duration")
	}

	e.Duration = 0
	if e.Expired(1e9) {
		t.Error("durationless event expired")
	}
}

func TestEventReaches(t *testing.T) {
	e := NewEvent("noise.explosion", Vec3{}, 0.9, 0)
	e.Radius = 500

	if !e.Reaches(Vec3{X: 499}) {
		t.Error("subscriber at 499 out of reach")
	}
	if e.Reaches(Vec3{X: 501}) {
		t.Error("subscriber at 501 in reach")
	}

	e.Radius = 0
	if !e.Reaches(Vec3{X: 1e6}) {
		t.Error("radiusless event should reach everywhere")
	}
}
