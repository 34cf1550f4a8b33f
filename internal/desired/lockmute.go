package desired

// LockMuteState is the three-valued-in-spirit (five constructors) mute
// and lock state of an endpoint's volume. MuteMixed can only be reached
// by observing heterogeneous mute flags across an endpoint's backing
// nodes; the user may never transition into it, and locking is forbidden
// while in it (spec.md §3).
type LockMuteState int

const (
	MuteMixed LockMuteState = iota
	MutedLocked
	MutedUnlocked
	UnmutedLocked
	UnmutedUnlocked
)

func (s LockMuteState) String() string {
	switch s {
	case MuteMixed:
		return "MuteMixed"
	case MutedLocked:
		return "MutedLocked"
	case MutedUnlocked:
		return "MutedUnlocked"
	case UnmutedLocked:
		return "UnmutedLocked"
	case UnmutedUnlocked:
		return "UnmutedUnlocked"
	default:
		return "Unknown"
	}
}

// IsLocked reports whether this state enforces its mute value against
// divergent observations.
func (s LockMuteState) IsLocked() bool {
	return s == MutedLocked || s == UnmutedLocked
}

// IsMuted reports the effective mute value. MuteMixed has no single
// effective value and reports false, matching the convention that mixed
// state is never treated as definitively muted by the reconciler.
func (s LockMuteState) IsMuted() bool {
	return s == MutedLocked || s == MutedUnlocked
}

// WithMute applies an explicit user-requested mute value, preserving the
// current lock-ness. This is how SetMute intents transition state; it can
// be called from MuteMixed (the explicit value simply replaces it).
func (s LockMuteState) WithMute(muted bool) LockMuteState {
	locked := s.IsLocked()
	switch {
	case muted && locked:
		return MutedLocked
	case muted && !locked:
		return MutedUnlocked
	case !muted && locked:
		return UnmutedLocked
	default:
		return UnmutedUnlocked
	}
}

// WithLock attempts to change the lock-ness while preserving the
// effective mute value. Locking is refused while MuteMixed (returns the
// unchanged state and false). Unlocking from MuteMixed is a no-op that
// succeeds trivially, since mixed state has no lock to release.
func (s LockMuteState) WithLock(locked bool) (LockMuteState, bool) {
	if locked && s == MuteMixed {
		return s, false
	}
	if !locked && s == MuteMixed {
		return s, true
	}
	muted := s.IsMuted()
	switch {
	case locked && muted:
		return MutedLocked, true
	case locked && !muted:
		return UnmutedLocked, true
	case !locked && muted:
		return MutedUnlocked, true
	default:
		return UnmutedUnlocked, true
	}
}

// FromBoolsUnlocked derives an unlocked endpoint's mute state from the
// observed mute flags of all its backing nodes (spec.md §4.5 Phase B):
// uniformly muted, uniformly unmuted, or mixed.
func FromBoolsUnlocked(mutes []bool) LockMuteState {
	if len(mutes) == 0 {
		return UnmutedUnlocked
	}
	allMuted, allUnmuted := true, true
	for _, m := range mutes {
		if m {
			allUnmuted = false
		} else {
			allMuted = false
		}
	}
	switch {
	case allMuted:
		return MutedUnlocked
	case allUnmuted:
		return UnmutedUnlocked
	default:
		return MuteMixed
	}
}
