// Command gttcan-node is a reference node runner: it loads a schedule
// file, binds a gttcan.Core to a SocketCAN interface, and runs until
// signaled to stop. It exists to give the packages in this module a
// runnable end-to-end wiring, the way spec §9 calls for an example
// program; production firmware wires gttcan.Core into its own boot
// sequence instead of this binary.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/cpslab-gu/gttcan-go/gttcan"
	"github.com/cpslab-gu/gttcan-go/internal/cli"
	"github.com/cpslab-gu/gttcan-go/internal/diagnostic"
	"github.com/cpslab-gu/gttcan-go/internal/schedulefile"
	"github.com/cpslab-gu/gttcan-go/internal/socketcan"
)

// memWhiteboard is the default in-memory internal/socketcan.Whiteboard
// for this reference runner; a real node would back this with sensor
// and actuator registers instead.
type memWhiteboard struct {
	mu   sync.Mutex
	data map[uint16]uint64
}

func newMemWhiteboard() *memWhiteboard {
	return &memWhiteboard{data: make(map[uint16]uint64)}
}

func (w *memWhiteboard) Read(dataID uint16) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.data[dataID]
}

func (w *memWhiteboard) Write(dataID uint16, value uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.data[dataID] = value

	log.Printf("whiteboard[%d] = %d", dataID, value)
}

func main() {
	var (
		showVersion bool
		jsonOutput  bool
		schedPath   string
		iface       string
		nodeID      int
		stm32Offset bool
		watch       bool
	)

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&jsonOutput, "json", false, "output version in JSON format")
	flag.StringVar(&schedPath, "schedule", "", "path to a schedule file (required)")
	flag.StringVar(&iface, "iface", "vcan0", "SocketCAN interface name")
	flag.IntVar(&nodeID, "node-id", -1, "this node's ID in the schedule (required)")
	flag.BoolVar(&stm32Offset, "stm32", false, "use the STM32 slot-offset profile")
	flag.BoolVar(&watch, "watch", false, "watch the schedule file and log when it changes (does not reload; restart to apply)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --schedule <path> --node-id <id>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs one GTTCAN node against a SocketCAN interface.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		cli.PrintVersion("gttcan-node", jsonOutput)
		return
	}

	if schedPath == "" || nodeID < 0 || nodeID > 255 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(schedPath, iface, uint8(nodeID), stm32Offset, watch); err != nil {
		cli.ExitWithError("%v", err)
	}
}

func run(schedPath, iface string, nodeID uint8, stm32Offset, watch bool) error {
	sched, err := schedulefile.Load(schedPath)
	if err != nil {
		return fmt.Errorf("loading schedule: %w", err)
	}

	sink := diagnostic.NewSink(nil)
	board := newMemWhiteboard()

	bus, err := socketcan.Open(iface, board)
	if err != nil {
		return fmt.Errorf("opening %s: %w", iface, err)
	}
	defer bus.Close()

	core := gttcan.NewCore()

	opts := []gttcan.Option{gttcan.WithDiagnosticHook(sink.Hook())}
	if stm32Offset {
		opts = append(opts, gttcan.WithSlotOffset(gttcan.DefaultSlotOffsetSTM32))
	}

	if err := core.Init(nodeID, sched.SlotDuration, sched.Entries, bus, opts...); err != nil {
		return fmt.Errorf("initializing core: %w", err)
	}

	// Start runs before Bind launches the RX and timer loops, so it never
	// overlaps either of them.
	if nodeID == sched.Entries[0].NodeID {
		core.Start()
	}

	bus.Bind(core)

	if watch {
		w, err := schedulefile.NewWatcher(schedPath)
		if err != nil {
			return fmt.Errorf("watching schedule: %w", err)
		}
		defer w.Close()

		// NewWatcher delivers the initial load as its first value; consume
		// it here so only later changes are logged as changes.
		select {
		case <-w.Updates:
		case err := <-w.Errors:
			log.Printf("schedule watch error: %v", err)
		}

		go func() {
			for {
				select {
				case err := <-w.Errors:
					log.Printf("schedule watch error: %v", err)
				case <-w.Updates:
					log.Printf("schedule file changed; restart this node to apply it")
				}
			}
		}()
	}

	log.Printf("gttcan-node: node %d on %s, %d local slots", nodeID, iface, core.LocalScheduleLen())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	<-sigs

	return nil
}
