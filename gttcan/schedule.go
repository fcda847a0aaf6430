package gttcan

import (
	"fmt"

	"github.com/cpslab-gu/gttcan-go/internal/xerrors"
)

// SlotEntry is one entry in the global schedule: the node that owns the
// slot and the whiteboard datum it carries. A zero NodeID denotes an
// empty slot; NodeID values are never validated for uniqueness across
// the schedule (spec invariant I5 — enforcing a single time master is a
// configuration concern, not a core one).
type SlotEntry struct {
	NodeID uint8
	DataID uint16
}

// IsReference reports whether this slot entry carries network time.
func (s SlotEntry) IsReference() bool { return s.DataID == NetworkTimeSlot }

// localEntry is one entry in a node's derived local schedule: the
// global schedule index it corresponds to, paired with the datum it
// carries (denormalized from the global schedule so hot-path lookups
// never touch the global schedule slice).
type localEntry struct {
	slotIndex uint16
	dataID    uint16
}

// deriveLocalSchedule filters global for the entries owned by nodeID,
// in schedule order, truncating silently at MaxLocal per spec §7
// ("Schedule exhaustion"). It returns the number of entries dropped by
// truncation so Init can report it through a DiagnosticHook.
func deriveLocalSchedule(global []SlotEntry, nodeID uint8) (local []localEntry, dropped int) {
	local = make([]localEntry, 0, MaxLocal)

	for i, entry := range global {
		if entry.NodeID != nodeID {
			continue
		}

		if len(local) >= MaxLocal {
			dropped++

			continue
		}

		local = append(local, localEntry{slotIndex: uint16(i), dataID: entry.DataID})
	}

	return local, dropped
}

// validateGlobalSchedule checks the static constraints a global
// schedule must satisfy before it can back a Core instance.
func validateGlobalSchedule(global []SlotEntry) error {
	if len(global) == 0 {
		return xerrors.ScheduleInvalid("global schedule must have at least one entry")
	}

	if len(global) > MaxSlots {
		return xerrors.ScheduleInvalid(fmt.Sprintf("global schedule length %d exceeds MaxSlots (%d)", len(global), MaxSlots))
	}

	if !global[0].IsReference() {
		return xerrors.ScheduleInvalid(fmt.Sprintf("schedule index 0 must be a reference slot (data id %d)", NetworkTimeSlot))
	}

	for i, entry := range global {
		if entry.DataID > maxDataID {
			return xerrors.ScheduleInvalid(fmt.Sprintf("slot %d: data id %d exceeds the 14-bit data id field (max %d)", i, entry.DataID, maxDataID))
		}
	}

	return nil
}

// maxDataID is the largest value DataID can hold in the 14-bit data id
// field of a frame identifier (idField bits 13..0); see transmission.go
// and reception.go's idField packing/unpacking.
const maxDataID uint16 = 0x3FFF

// slotsToNextTransmit returns the forward distance, modulo the global
// schedule length, from currentIndex to the schedule index this node
// will next transmit on. A node already sitting on its own next slot
// reports a full wrap (spec P4: the result is never 0).
//
// A node with an empty local schedule (listen-only) has no "next
// transmit" slot; it reports a full schedule period so a caller that
// arms a timer from this value still lands on a sane resync point
// rather than indexing past the end of an empty slice.
func (c *Core) slotsToNextTransmit(currentIndex uint16) uint16 {
	globalLen := uint16(len(c.globalSchedule))

	if len(c.localSchedule) == 0 {
		return globalLen
	}

	target := c.localSchedule[c.localScheduleIndex].slotIndex

	switch {
	case currentIndex == target:
		return globalLen
	case currentIndex > target:
		return globalLen - currentIndex + target
	default:
		return target - currentIndex
	}
}

// slotsSinceLastTransmit returns the distance, modulo the global
// schedule length, from this node's last transmission to currentIndex.
// Before this node has ever transmitted it simply reports currentIndex
// (the schedule is assumed to have started at index 0).
func (c *Core) slotsSinceLastTransmit(currentIndex uint16) uint16 {
	if !c.transmitted {
		return currentIndex
	}

	localLen := len(c.localSchedule)

	var lastIdx int
	if c.localScheduleIndex > 0 {
		lastIdx = c.localScheduleIndex - 1
	} else {
		lastIdx = localLen - 1
	}

	last := c.localSchedule[lastIdx].slotIndex
	globalLen := uint16(len(c.globalSchedule))

	if currentIndex > last {
		return currentIndex - last
	}

	return globalLen - last + currentIndex
}
