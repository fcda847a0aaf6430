package gttcan

import "math"

// accumulate folds one reception's timing error into the FTA state. It
// is a no-op before this node has ever transmitted: a node with no
// transmission of its own yet has no notion of "expected" timing to
// compare against (spec §4.B).
func (c *Core) accumulate(errorNUT int32) {
	if !c.transmitted {
		return
	}

	c.errorAccumulator += errorNUT

	if errorNUT < c.lowerOutlier {
		c.lowerOutlier = errorNUT
	}

	if errorNUT > c.upperOutlier {
		c.upperOutlier = errorNUT
	}

	c.slotsAccumulated++
}

// fta computes the fault-tolerant average of the accumulated timing
// errors and resets the accumulator. With zero samples it reports no
// correction; with one or two samples it degrades to a plain arithmetic
// mean (too few samples to safely trim outliers); with three or more it
// trims the single worst-early and worst-late sample before averaging,
// tolerating up to two arbitrarily bad readings per cycle without
// resorting to a sort.
func (c *Core) fta() int32 {
	var mean int32

	switch c.slotsAccumulated {
	case 0:
		mean = 0
		c.stateCorrection = 0
	case 1, 2:
		mean = c.errorAccumulator / int32(c.slotsAccumulated)
		c.stateCorrection = c.errorAccumulator
	default:
		n := int32(c.slotsAccumulated)
		mean = (c.errorAccumulator - c.lowerOutlier - c.upperOutlier) / (n - 2)
		c.stateCorrection = mean * n
	}

	c.errorAccumulator = 0
	c.lowerOutlier = math.MaxInt32
	c.upperOutlier = math.MinInt32
	c.slotsAccumulated = 0

	return mean
}
