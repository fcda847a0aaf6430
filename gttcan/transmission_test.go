package gttcan

import "testing"

func TestOnTimerExpired_InactiveNodeDoesNothing(t *testing.T) {
	cb := newFakeCallbacks()
	c := mustInitCore(t, 10, threeNodeSchedule(), cb)

	c.OnTimerExpired()

	if len(cb.transmitted) != 0 {
		t.Fatalf("transmitted = %d calls, want 0 while inactive", len(cb.transmitted))
	}
}

func TestOnTimerExpired_ListenOnlyNodeNeverPanics(t *testing.T) {
	cb := newFakeCallbacks()
	global := threeNodeSchedule()
	c := mustInitCore(t, 250, global, cb) // node 250 owns no slots

	c.isActive = true
	c.OnTimerExpired() // must not index an empty local schedule

	if len(cb.transmitted) != 0 {
		t.Fatalf("transmitted = %d calls, want 0 for a listen-only node", len(cb.transmitted))
	}
}

// S6: transmit-wrap scenario from the spec.
func TestOnTimerExpired_WrapsLocalScheduleIndex(t *testing.T) {
	cb := newFakeCallbacks()
	global := make([]SlotEntry, 10)
	for i := range global {
		global[i] = SlotEntry{NodeID: 99, DataID: NetworkTimeSlot + 1}
	}
	global[0] = SlotEntry{NodeID: 1, DataID: NetworkTimeSlot}
	global[3] = SlotEntry{NodeID: 42, DataID: 11}
	global[7] = SlotEntry{NodeID: 42, DataID: 12}

	c := mustInitCore(t, 42, global, cb)
	c.slotDuration = 100
	c.isActive = true
	c.localScheduleIndex = 1 // pointing at global index 7

	c.OnTimerExpired()

	if len(cb.transmitted) != 1 {
		t.Fatalf("transmitted = %d calls, want 1", len(cb.transmitted))
	}

	wantID := (uint32(7) << 14) | uint32(12)
	if cb.transmitted[0].idField != wantID {
		t.Fatalf("idField = %#x, want %#x", cb.transmitted[0].idField, wantID)
	}

	if c.localScheduleIndex != 0 {
		t.Fatalf("localScheduleIndex = %d, want 0 after wrap", c.localScheduleIndex)
	}

	if cb.lastTimer() != 600 {
		t.Fatalf("timer armed to %d, want 600", cb.lastTimer())
	}
}

func TestOnTimerExpired_TagsStartOfSchedule(t *testing.T) {
	cb := newFakeCallbacks()
	global := threeNodeSchedule() // index 0 owned by node 1 (master)
	c := mustInitCore(t, 1, global, cb)

	c.Start()

	if len(cb.transmitted) != 1 {
		t.Fatalf("transmitted = %d calls, want 1", len(cb.transmitted))
	}

	if cb.transmitted[0].data&startOfScheduleBit == 0 {
		t.Fatal("first frame from Start() must carry the start-of-schedule bit")
	}
}

func TestOnTimerExpired_ReferenceFrameRunsFTA(t *testing.T) {
	cb := newFakeCallbacks()
	global := threeNodeSchedule()
	c := mustInitCore(t, 1, global, cb)
	c.transmitted = true
	c.accumulate(40)
	c.accumulate(20)

	c.isActive = true
	c.localScheduleIndex = 0 // entry 0 is the reference slot for node 1

	c.OnTimerExpired()

	if c.errorOffset != 30 {
		t.Fatalf("errorOffset = %d, want 30 (mean of 40,20)", c.errorOffset)
	}
}

// orderedCallbacks records, for each Transmit call, how many timers had
// already been armed at that moment, so a test can tell whether
// SetTimer ran before Transmit.
type orderedCallbacks struct {
	*fakeCallbacks

	timersAtTransmit []int
}

func (o *orderedCallbacks) Transmit(idField uint32, data uint64) {
	o.timersAtTransmit = append(o.timersAtTransmit, len(o.timersArmed))
	o.fakeCallbacks.Transmit(idField, data)
}

func TestOnTimerExpired_ArmsTimerBeforeTransmitCallback(t *testing.T) {
	// The spec's ordering requirement (§4.D): the timer for the next
	// slot is armed before the transmit callback is invoked.
	cb := &orderedCallbacks{fakeCallbacks: newFakeCallbacks()}
	global := threeNodeSchedule()
	c := mustInitCore(t, 1, global, cb)

	c.Start()

	if len(cb.timersArmed) != 1 || len(cb.transmitted) != 1 {
		t.Fatalf("want exactly one timer arm and one transmit, got %d/%d", len(cb.timersArmed), len(cb.transmitted))
	}

	if cb.timersAtTransmit[0] != 1 {
		t.Fatalf("timers armed when Transmit was called = %d, want 1 (SetTimer before Transmit)", cb.timersAtTransmit[0])
	}
}
