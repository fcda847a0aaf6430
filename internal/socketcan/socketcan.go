// Package socketcan is a Linux SocketCAN (AF_CAN, CAN_RAW) reference
// transport. The spec treats the CAN controller driver as an external
// collaborator reached only through a transmit callback (§1); this
// package is a concrete implementation of that collaborator plus a
// timerfd-backed hardware timer, for running a gttcan.Core against a
// real or virtual CAN interface (vcan0 in development) instead of a
// microcontroller's CAN peripheral.
//
// The "real hardware" surface here is golang.org/x/sys/unix's AF_CAN
// socket and timerfd syscalls, which is also the idiom the wider Go CAN
// ecosystem uses for SocketCAN access.
package socketcan

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/cpslab-gu/gttcan-go/gttcan"
	"github.com/cpslab-gu/gttcan-go/internal/xerrors"
)

// canFrameSize is sizeof(struct can_frame): 4 bytes ID + 1 byte DLC + 3
// bytes padding + 8 bytes data.
const canFrameSize = 16

// frame is the wire layout of Linux's struct can_frame.
type frame struct {
	id  uint32
	dlc uint8
	_   [3]byte
	pad [8]byte
}

// Bus wires a gttcan.Core to a SocketCAN interface and a timerfd-backed
// timer. It implements gttcan.Callbacks directly: Transmit and SetTimer
// talk to the kernel, ReadValue/WriteValue are delegated to a
// host-supplied whiteboard.
type Bus struct {
	core *gttcan.Core

	canFD      int
	timerFD    int
	whiteboard Whiteboard

	mu sync.Mutex // serializes RX and timer ISR-equivalents, per spec §5

	stop chan struct{}
}

// Whiteboard is the host data store gttcan.Core reads from and writes
// to on every transmit/receive; the spec scopes it out of the core
// entirely (§1) and this package only forwards to it.
type Whiteboard interface {
	Read(dataID uint16) uint64
	Write(dataID uint16, value uint64)
}

// Open binds a raw CAN_RAW socket to the named interface (e.g. "can0",
// "vcan0") and creates the timerfd that will drive Core.OnTimerExpired.
func Open(ifaceName string, whiteboard Whiteboard) (*Bus, error) {
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, xerrors.TransportUnavailable("socketcan", "socket: "+err.Error())
	}

	ifi, err := unix.IfNameIndex()
	if err != nil {
		_ = unix.Close(fd)

		return nil, xerrors.TransportUnavailable("socketcan", "interface lookup: "+err.Error())
	}

	ifIndex, err := resolveIfIndex(ifi, ifaceName)
	if err != nil {
		_ = unix.Close(fd)

		return nil, err
	}

	addr := &unix.SockaddrCAN{Ifindex: ifIndex}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)

		return nil, xerrors.TransportUnavailable("socketcan", "bind: "+err.Error())
	}

	timerFD, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		_ = unix.Close(fd)

		return nil, xerrors.TransportUnavailable("socketcan", "timerfd_create: "+err.Error())
	}

	return &Bus{
		canFD:      fd,
		timerFD:    timerFD,
		whiteboard: whiteboard,
		stop:       make(chan struct{}),
	}, nil
}

func resolveIfIndex(list []unix.IfNameIndex, name string) (int, error) {
	for _, ifi := range list {
		n := string(ifi.Name[:])
		if idx := indexOfNUL(n); idx >= 0 {
			n = n[:idx]
		}

		if n == name {
			return int(ifi.Index), nil
		}
	}

	return 0, xerrors.TransportUnavailable("socketcan", "no such interface: "+name)
}

func indexOfNUL(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return i
		}
	}

	return -1
}

// Bind installs core as the protocol instance this bus drives and
// starts the RX and timer read loops. Init must already have been
// called on core with this Bus as its gttcan.Callbacks.
func (b *Bus) Bind(core *gttcan.Core) {
	b.core = core

	go b.rxLoop()
	go b.timerLoop()
}

// Close stops both read loops and releases the underlying file
// descriptors.
func (b *Bus) Close() error {
	close(b.stop)

	err1 := unix.Close(b.canFD)
	err2 := unix.Close(b.timerFD)

	if err1 != nil {
		return err1
	}

	return err2
}

func (b *Bus) rxLoop() {
	buf := make([]byte, canFrameSize)

	for {
		select {
		case <-b.stop:
			return
		default:
		}

		n, _, err := unix.Recvfrom(b.canFD, buf, 0)
		if err != nil || n < canFrameSize {
			continue
		}

		f := decodeFrame(buf)
		idField := f.id & unix.CAN_EFF_MASK
		data := binary.LittleEndian.Uint64(f.pad[:])

		b.mu.Lock()
		b.core.OnFrameReceived(idField, data, 0)
		b.mu.Unlock()
	}
}

func (b *Bus) timerLoop() {
	for {
		select {
		case <-b.stop:
			return
		default:
		}

		buf := make([]byte, 8)
		if _, err := unix.Read(b.timerFD, buf); err != nil {
			continue
		}

		b.mu.Lock()
		b.core.OnTimerExpired()
		b.mu.Unlock()
	}
}

// Transmit implements gttcan.Callbacks by writing an extended-ID CAN
// frame carrying data to the bound interface.
func (b *Bus) Transmit(idField uint32, data uint64) {
	f := frame{id: idField&unix.CAN_EFF_MASK | unix.CAN_EFF_FLAG, dlc: 8}
	binary.LittleEndian.PutUint64(f.pad[:], data)

	buf := encodeFrame(f)
	_, _ = unix.Write(b.canFD, buf)
}

// SetTimer implements gttcan.Callbacks by arming the timerfd for
// deltaNUT*100ns from now, replacing any previously armed expiration.
func (b *Bus) SetTimer(deltaNUT uint32) {
	ns := int64(deltaNUT) * gttcan.NUT
	spec := unix.ItimerSpec{
		Value: unix.NsecToTimespec(ns),
	}

	_ = unix.TimerfdSettime(b.timerFD, 0, &spec, nil)
}

// ReadValue implements gttcan.Callbacks by delegating to the bound
// Whiteboard.
func (b *Bus) ReadValue(dataID uint16) uint64 { return b.whiteboard.Read(dataID) }

// WriteValue implements gttcan.Callbacks by delegating to the bound
// Whiteboard.
func (b *Bus) WriteValue(dataID uint16, value uint64) { b.whiteboard.Write(dataID, value) }

func decodeFrame(buf []byte) frame {
	var f frame

	f.id = binary.LittleEndian.Uint32(buf[0:4])
	f.dlc = buf[4]
	copy(f.pad[:], buf[8:16])

	return f
}

func encodeFrame(f frame) []byte {
	buf := make([]byte, canFrameSize)

	binary.LittleEndian.PutUint32(buf[0:4], f.id)
	buf[4] = f.dlc
	copy(buf[8:16], f.pad[:])

	return buf
}
