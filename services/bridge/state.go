package bridge

import "sigfoxbridge-go/types"

// peripheralState is the bridge's running observation state: the button
// level as of the last poll and the cumulative received byte count.
// Mutated only from the dispatch goroutine.
type peripheralState struct {
	lastButton types.Level
	rxTotal    uint64
}

// ledActive maps the cumulative count to the indicator: odd is active.
func (s *peripheralState) ledActive() bool { return s.rxTotal%2 == 1 }
