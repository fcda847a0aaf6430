package gttcan

import (
	"math"

	"github.com/cpslab-gu/gttcan-go/internal/xerrors"
)

// OnFrameReceived is the reception handler: it should be invoked from
// the host's CAN RX ISR with the received frame's 28-bit identifier
// field and 64-bit payload, plus actionTime — the host-measured delay
// between when the receiving interrupt was scheduled to fire and when
// it actually observed the frame (spec §3, "Timing state").
//
// It classifies the frame (reference vs. data vs. invalid), folds its
// arrival timing into the FTA accumulator, and updates the whiteboard
// through Callbacks. It re-arms the timer for this node's next
// transmission only on a reference frame or a periodic resync (once
// slotsAccumulated reaches the global schedule length); a plain data
// frame leaves the armed timer as it is. It never blocks and never returns an error: a frame
// this package cannot make sense of is silently ignored (spec §7).
func (c *Core) OnFrameReceived(idField uint32, data uint64, actionTime uint32) {
	// Apply any residual correction left over from the last periodic
	// resync or reference frame exactly once (spec §4.C / §9: "exactly
	// one application … implementations must not double-apply"), then
	// clear it immediately so a later fta() call below can set a fresh
	// residual without today's already-applied one leaking into the
	// next reception.
	c.actionTime = c.applyStateCorrection(actionTime)
	c.stateCorrection = 0

	slotID := uint16(idField & 0x3FFF)
	globalScheduleIndex := uint16((idField >> 14) & 0x3FFF)

	slotsSince := c.slotsSinceLastTransmit(globalScheduleIndex)
	expected := uint32(slotsSince) * c.slotDuration
	errorNUT := int32(expected) - int32(c.actionTime)

	c.accumulate(errorNUT)

	switch {
	case slotID == NetworkTimeSlot:
		c.handleReferenceFrame(data, globalScheduleIndex)
	case slotID >= 1:
		c.callbacks.WriteValue(slotID, data)
	default:
		// Unreachable: slotID is a 14-bit unsigned value, so the only
		// remaining case already matches slotID == NetworkTimeSlot
		// above. Kept because the original source guards against it
		// explicitly too (spec §9, flagged as possibly unintended).
		c.report(EventInvalidFrame, "slot id decoded outside reference/data range")

		return
	}

	if c.slotsAccumulated >= uint16(len(c.globalSchedule)) {
		c.errorOffset = c.fta()
		slotsToNext := c.slotsToNextTransmit(globalScheduleIndex)
		c.callbacks.SetTimer(uint32(slotsToNext) * c.slotDuration)
	}
}

// applyStateCorrection subtracts the pending stateCorrection from
// actionTime in 64-bit arithmetic and clamps the result to a valid
// uint32 rather than letting it wrap, reporting EventClockOverflow when
// clamping was necessary. Spec §7 recommends exactly this over the
// original's unbounded retry loop for a correction that would not fit
// before the next slot boundary.
func (c *Core) applyStateCorrection(actionTime uint32) uint32 {
	corrected := int64(actionTime) - int64(c.stateCorrection)

	switch {
	case corrected < 0:
		c.report(EventClockOverflow, xerrors.ClockOverflow(corrected, 0).Error())

		return 0
	case corrected > math.MaxUint32:
		c.report(EventClockOverflow, xerrors.ClockOverflow(corrected, math.MaxUint32).Error())

		return math.MaxUint32
	default:
		return uint32(corrected)
	}
}

func (c *Core) handleReferenceFrame(data uint64, globalScheduleIndex uint16) {
	if data&startOfScheduleBit != 0 {
		c.isActive = true
		c.localScheduleIndex = 0
	}

	data += c.slotOffset
	c.callbacks.WriteValue(NetworkTimeSlot, data&networkTimeMask)

	c.errorOffset = c.fta()

	slotsToNext := c.slotsToNextTransmit(globalScheduleIndex)
	c.callbacks.SetTimer(uint32(slotsToNext) * c.slotDuration)
}
