// Command gttcan-schedgen estimates CAN bus usage for a schedule file
// before it is deployed to a node, using the bit arithmetic the gttcan
// package exports (gttcan.FrameBits). For each slot it assumes an
// 8-byte payload holding that slot's packed schedule index and data id,
// and prints the estimated frame bits; it then prints the total bits
// and the schedule period in NUT. It does not compare frame lengths
// against the slot duration. It is schedule-design tooling, not part of
// the protocol (spec §1 leaves schedule construction to an external
// collaborator).
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/cpslab-gu/gttcan-go/gttcan"
	"github.com/cpslab-gu/gttcan-go/internal/cli"
	"github.com/cpslab-gu/gttcan-go/internal/schedulefile"
)

func main() {
	var (
		showVersion bool
		jsonOutput  bool
		schedPath   string
		extended    bool
	)

	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&jsonOutput, "json", false, "output version in JSON format")
	flag.StringVar(&schedPath, "schedule", "", "path to a schedule file (required)")
	flag.BoolVar(&extended, "extended", true, "assume 29-bit extended CAN identifiers")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --schedule <path>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Estimates per-slot and total bus utilization for a GTTCAN schedule.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		cli.PrintVersion("gttcan-schedgen", jsonOutput)
		return
	}

	if schedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	sched, err := schedulefile.Load(schedPath)
	if err != nil {
		cli.ExitWithError("loading schedule: %v", err)
	}

	report(sched, extended)
}

func report(sched *schedulefile.Schedule, extended bool) {
	var totalBits uint32

	payload := make([]byte, 8)

	fmt.Printf("%-6s %-8s %-10s %s\n", "SLOT", "DATA_ID", "KIND", "FRAME_BITS")

	for i, e := range sched.Entries {
		binary.LittleEndian.PutUint64(payload, uint64(i)<<14|uint64(e.DataID))

		bits := gttcan.FrameBits(payload, extended)
		totalBits += bits

		kind := "data"
		if e.IsReference() {
			kind = "reference"
		}

		fmt.Printf("%-6d %-8d %-10s %d\n", i, e.DataID, kind, bits)
	}

	scheduleNUT := uint64(len(sched.Entries)) * uint64(sched.SlotDuration)

	fmt.Printf("\n%d slots, %d bits total, %d NUT schedule period\n",
		len(sched.Entries), totalBits, scheduleNUT)
}
