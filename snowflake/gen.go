// Package snowflake generates sortable resource identifiers composed of
// a millisecond timestamp, a machine id and a per-millisecond sequence.
package snowflake

import (
	"sync/atomic"
	"time"
)

const (
	epoch        = 1491696000000
	serverBits   = 10
	sequenceBits = 12
	timeBits     = 42
	serverShift  = sequenceBits
	timeShift    = sequenceBits + serverBits
	serverMax    = ^(-1 << serverBits)
	sequenceMask = ^(-1 << sequenceBits)
	timeMask     = ^(-1 << timeBits)
)

// Generator produces monotonically increasing ids for one machine id.
// It is safe for concurrent use.
type Generator struct {
	state   uint64
	machine uint64
}

// New returns a generator stamped with the low ten bits of machineID.
func New(machineID int) *Generator {
	return &Generator{
		state:   0,
		machine: uint64(machineID&serverMax) << serverShift,
	}
}

// MachineID returns the machine id the generator stamps into every id.
func (g *Generator) MachineID() int {
	return int(g.machine >> serverShift)
}

// Next returns the next id in the sequence.
func (g *Generator) Next() uint64 {
	var state uint64

	// Attempt a bounded number of times to atomically advance the
	// timestamp and sequence before declaring the generator contended.
	for i := 0; i < 100; i++ {
		t := (now() - epoch) & timeMask
		current := atomic.LoadUint64(&g.state)
		currentTime := current >> timeShift & timeMask
		currentSeq := current & sequenceMask

		switch {
		// The clock moved forward, restart the sequence.
		case t > currentTime:
			state = t << timeShift

		// The sequence for this millisecond is exhausted, borrow from
		// the next one.
		case currentSeq == sequenceMask:
			state = (currentTime + 1) << timeShift

		default:
			state = current + 1
		}

		if atomic.CompareAndSwapUint64(&g.state, current, state) {
			break
		}

		state = 0
	}

	// Heavy contention, bound the time spent here and take the next
	// counter value. The state remains monotonic.
	if state == 0 {
		state = atomic.AddUint64(&g.state, 1)
	}

	return state | g.machine
}

// NextString returns the next id in its sortable string encoding.
func (g *Generator) NextString() string {
	var s [11]byte
	encode(&s, g.Next())
	return string(s[:])
}

// The alphabet is ordered by ASCII value so encoded strings sort the
// same way as the numbers they encode.
const digits = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"_" +
	"abcdefghijklmnopqrstuvwxyz" +
	"~"

func encode(s *[11]byte, n uint64) {
	s[10], n = digits[n&0x3f], n>>6
	s[9], n = digits[n&0x3f], n>>6
	s[8], n = digits[n&0x3f], n>>6
	s[7], n = digits[n&0x3f], n>>6
	s[6], n = digits[n&0x3f], n>>6
	s[5], n = digits[n&0x3f], n>>6
	s[4], n = digits[n&0x3f], n>>6
	s[3], n = digits[n&0x3f], n>>6
	s[2], n = digits[n&0x3f], n>>6
	s[1], n = digits[n&0x3f], n>>6
	s[0] = digits[n&0x0f]
}

func now() uint64 {
	return uint64(time.Now().UnixNano() / 1e6)
}
