package gttcan

// fakeCallbacks is a minimal in-memory Callbacks implementation used by
// tests that care about sequences of calls rather than exact argument
// matching (see MockCallbacks, generated via go.uber.org/mock, for the
// latter).
type fakeCallbacks struct {
	whiteboard map[uint16]uint64

	transmitted []transmitCall
	timersArmed []uint32
}

type transmitCall struct {
	idField uint32
	data    uint64
}

func newFakeCallbacks() *fakeCallbacks {
	return &fakeCallbacks{whiteboard: make(map[uint16]uint64)}
}

func (f *fakeCallbacks) Transmit(idField uint32, data uint64) {
	f.transmitted = append(f.transmitted, transmitCall{idField: idField, data: data})
}

func (f *fakeCallbacks) SetTimer(deltaNUT uint32) {
	f.timersArmed = append(f.timersArmed, deltaNUT)
}

func (f *fakeCallbacks) ReadValue(dataID uint16) uint64 {
	return f.whiteboard[dataID]
}

func (f *fakeCallbacks) WriteValue(dataID uint16, value uint64) {
	f.whiteboard[dataID] = value
}

func (f *fakeCallbacks) lastTimer() uint32 {
	if len(f.timersArmed) == 0 {
		return 0
	}

	return f.timersArmed[len(f.timersArmed)-1]
}
