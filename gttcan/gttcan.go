// Package gttcan implements the core of the Globally Time-Triggered CAN
// protocol: a static slot schedule, fault-tolerant clock averaging, and
// the reception/transmission handlers that keep a node's transmissions
// inside its assigned slots without bus-level arbitration.
//
// The package has no internal concurrency. Both entry points,
// OnFrameReceived and OnTimerExpired, are meant to run on the host's
// interrupt contexts (CAN RX ISR and hardware timer ISR respectively)
// and must be mutually excluded by the host; see Core's doc comment.
package gttcan

// NUT is the Network Unit of Time: one tick is 0.1 microseconds.
const NUT = 100 // nanoseconds per NUT, for hosts that want a time.Duration

// NetworkTimeSlot is the reserved data ID that carries network time on
// the reference frame. A slot entry with this data ID is a reference
// slot; schedule index 0 is always one, owned by the time master.
const NetworkTimeSlot uint16 = 0

// MaxSlots bounds the length of a global schedule.
const MaxSlots = 512

// MaxLocal bounds the length of a node's derived local schedule. Global
// entries beyond this count for a given node are dropped at Init time.
const MaxLocal = 32

// DefaultSlotOffset is the transmission-latency compensation (in NUT)
// added to a reference frame's network-time payload before it is
// written to the whiteboard. It approximates the average time a stuffed
// reference frame spends on the wire between being queued and clocked
// out. STM32 targets observe a slightly higher figure; see
// DefaultSlotOffsetSTM32 and WithSlotOffset.
const DefaultSlotOffset uint64 = 1480

// DefaultSlotOffsetSTM32 is DefaultSlotOffset for STM32 CAN peripherals,
// which add more latency to frame transmission than the reference
// target this protocol was originally profiled against.
const DefaultSlotOffsetSTM32 uint64 = 1600

// startOfScheduleBit marks bit 63 of a reference frame's payload.
const startOfScheduleBit uint64 = 1 << 63

// networkTimeMask isolates the low 62 bits of a reference frame payload.
// Bit 62 (reserved for TTCAN compatibility) and bit 63 are both cleared
// by this mask, so neither reaches the whiteboard.
const networkTimeMask uint64 = 0x3FFF_FFFF_FFFF_FFFF
