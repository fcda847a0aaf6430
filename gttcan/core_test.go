package gttcan

import "testing"

func TestInit_ReportsScheduleTruncation(t *testing.T) {
	cb := newFakeCallbacks()

	global := make([]SlotEntry, MaxLocal+3)
	global[0] = SlotEntry{NodeID: 1, DataID: NetworkTimeSlot}

	for i := 1; i < len(global); i++ {
		global[i] = SlotEntry{NodeID: 7, DataID: uint16(i)}
	}

	var events []DiagnosticEvent

	c := NewCore()
	err := c.Init(7, 100, global, cb, WithDiagnosticHook(func(e DiagnosticEvent) {
		events = append(events, e)
	}))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if len(events) != 1 || events[0].Kind != EventScheduleTruncated {
		t.Fatalf("events = %+v, want one EventScheduleTruncated", events)
	}
}

func TestWithSlotOffset_OverridesDefault(t *testing.T) {
	cb := newFakeCallbacks()
	c := NewCore()

	if err := c.Init(10, 100, threeNodeSchedule(), cb, WithSlotOffset(DefaultSlotOffsetSTM32)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if c.slotOffset != DefaultSlotOffsetSTM32 {
		t.Fatalf("slotOffset = %d, want %d", c.slotOffset, DefaultSlotOffsetSTM32)
	}
}

func TestStart_ActivatesAndTransmitsImmediately(t *testing.T) {
	cb := newFakeCallbacks()
	c := mustInitCore(t, 1, threeNodeSchedule(), cb)

	if c.IsActive() {
		t.Fatal("IsActive() = true before Start()")
	}

	c.Start()

	if !c.IsActive() {
		t.Fatal("IsActive() = false after Start()")
	}

	if len(cb.transmitted) != 1 {
		t.Fatalf("transmitted = %d calls after Start(), want 1", len(cb.transmitted))
	}
}

func TestLocalScheduleLen(t *testing.T) {
	cb := newFakeCallbacks()
	c := mustInitCore(t, 10, threeNodeSchedule(), cb)

	if got, want := c.LocalScheduleLen(), 3; got != want {
		t.Fatalf("LocalScheduleLen() = %d, want %d", got, want)
	}
}
