package domain

import "strings"

// Tag is a hierarchical type tag, dot-separated from general to specific:
// "combat", "combat.melee", "social.trade.offer". Tags classify events,
// stimuli, memories, and intents.
type Tag string

func (t Tag) Valid() bool {
	return t != ""
}

// Matches reports whether t falls under filter in the tag hierarchy.
// A filter matches itself and every more-specific tag beneath it:
// filter "combat" matches "combat" and "combat.melee", but not "combatant".
func (t Tag) Matches(filter Tag) bool {
	if t == filter {
		return true
	}
	return strings.HasPrefix(string(t), string(filter)+".")
}

// Root returns the first segment of the tag, used for action-family lookups.
func (t Tag) Root() Tag {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return t[:i]
	}
	return t
}

// MatchesAny reports whether t falls under any filter in the set.
func (t Tag) MatchesAny(filters []Tag) bool {
	for _, f := range filters {
		if t.Matches(f) {
			return true
		}
	}
	return false
}
