package gttcan

// OnTimerExpired is the transmission handler: it should be invoked from
// the host's hardware timer ISR. If the node has not yet observed a
// start-of-schedule frame (and is not the master started directly via
// Start), it returns immediately without transmitting.
//
// Otherwise it emits the current local-schedule entry, tags it as a
// start-of-schedule frame when applicable, advances to the next local
// entry, and arms the timer for it — critically, before invoking the
// transmit callback, so the host is already scheduled for the next slot
// even if Transmit takes variable time (spec §4.D ordering note).
func (c *Core) OnTimerExpired() {
	if !c.isActive || len(c.localSchedule) == 0 {
		return
	}

	c.transmitted = true

	entry := c.localSchedule[c.localScheduleIndex]
	globalScheduleIndex := entry.slotIndex
	dataID := entry.dataID

	data := c.callbacks.ReadValue(dataID)

	if dataID == NetworkTimeSlot {
		c.errorOffset = c.fta()
	}

	if globalScheduleIndex == 0 {
		data |= startOfScheduleBit
	}

	idField := (uint32(globalScheduleIndex) << 14) | uint32(dataID)

	c.localScheduleIndex++
	if c.localScheduleIndex == len(c.localSchedule) {
		c.localScheduleIndex = 0
	}

	next := uint32(c.slotsToNextTransmit(globalScheduleIndex)) * c.slotDuration
	c.callbacks.SetTimer(next)
	c.stateCorrection = 0

	c.callbacks.Transmit(idField, data)
}
