package gttcan

import (
	"fmt"

	"github.com/cpslab-gu/gttcan-go/internal/xerrors"
)

var (
	errSlotDurationZero = xerrors.ScheduleInvalid("slot duration must be greater than zero")
	errNilCallbacks     = xerrors.ScheduleInvalid("callbacks must not be nil")
)

func formatDropped(n int) string {
	if n == 1 {
		return "1 local schedule entry dropped: exceeds MaxLocal"
	}

	return fmt.Sprintf("%d local schedule entries dropped: exceeds MaxLocal", n)
}
