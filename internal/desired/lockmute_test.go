package desired

import "testing"

func TestWithMutePreservesLock(t *testing.T) {
	cases := []struct {
		start LockMuteState
		muted bool
		want  LockMuteState
	}{
		{UnmutedLocked, true, MutedLocked},
		{MutedLocked, false, UnmutedLocked},
		{UnmutedUnlocked, true, MutedUnlocked},
		{MutedUnlocked, false, UnmutedUnlocked},
		{MuteMixed, true, MutedUnlocked},
		{MuteMixed, false, UnmutedUnlocked},
	}
	for _, c := range cases {
		got := c.start.WithMute(c.muted)
		if got != c.want {
			t.Errorf("%s.WithMute(%v) = %s, want %s", c.start, c.muted, got, c.want)
		}
	}
}

func TestWithLockRefusedFromMixed(t *testing.T) {
	got, ok := MuteMixed.WithLock(true)
	if ok {
		t.Error("locking from MuteMixed should fail")
	}
	if got != MuteMixed {
		t.Errorf("state should be unchanged on refused lock, got %s", got)
	}
}

func TestWithLockUnlockFromMixedIsNoOp(t *testing.T) {
	got, ok := MuteMixed.WithLock(false)
	if !ok {
		t.Error("unlocking from MuteMixed should trivially succeed")
	}
	if got != MuteMixed {
		t.Errorf("unlock from MuteMixed should leave state unchanged, got %s", got)
	}
}

func TestWithLockPreservesMuteValue(t *testing.T) {
	cases := []struct {
		start  LockMuteState
		locked bool
		want   LockMuteState
	}{
		{MutedUnlocked, true, MutedLocked},
		{UnmutedUnlocked, true, UnmutedLocked},
		{MutedLocked, false, MutedUnlocked},
		{UnmutedLocked, false, UnmutedUnlocked},
	}
	for _, c := range cases {
		got, ok := c.start.WithLock(c.locked)
		if !ok {
			t.Fatalf("%s.WithLock(%v) unexpectedly failed", c.start, c.locked)
		}
		if got != c.want {
			t.Errorf("%s.WithLock(%v) = %s, want %s", c.start, c.locked, got, c.want)
		}
	}
}

func TestIsLockedAndIsMuted(t *testing.T) {
	if !MutedLocked.IsLocked() || !MutedLocked.IsMuted() {
		t.Error("MutedLocked should report locked and muted")
	}
	if UnmutedUnlocked.IsLocked() || UnmutedUnlocked.IsMuted() {
		t.Error("UnmutedUnlocked should report neither locked nor muted")
	}
	if MuteMixed.IsMuted() {
		t.Error("MuteMixed should not report as definitively muted")
	}
	if MuteMixed.IsLocked() {
		t.Error("MuteMixed should never be locked")
	}
}

func TestFromBoolsUnlocked(t *testing.T) {
	cases := []struct {
		mutes []bool
		want  LockMuteState
	}{
		{nil, UnmutedUnlocked},
		{[]bool{true, true}, MutedUnlocked},
		{[]bool{false, false}, UnmutedUnlocked},
		{[]bool{true, false}, MuteMixed},
	}
	for _, c := range cases {
		if got := FromBoolsUnlocked(c.mutes); got != c.want {
			t.Errorf("FromBoolsUnlocked(%v) = %s, want %s", c.mutes, got, c.want)
		}
	}
}
