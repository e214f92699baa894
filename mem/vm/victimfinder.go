package vm

// A VictimFinder decides which resident frame is evicted next.
type VictimFinder interface {
	// FindVictim picks a frame that is bound to a page, not pinned and not
	// excluded by skip. It returns false if there is no such frame.
	FindVictim(frames []*Frame, skip func(*Frame) bool) (*Frame, bool)
}

// ClockVictimFinder approximates LRU with the second-chance clock algorithm.
// The hand sweeps over the frames; a frame whose page has been accessed since
// the last sweep has its accessed bit cleared and is passed over once.
type ClockVictimFinder struct {
	tracker AccessTracker
	hand    int
}

// NewClockVictimFinder creates a clock victim finder reading accessed bits
// from tracker.
func NewClockVictimFinder(tracker AccessTracker) *ClockVictimFinder {
	return &ClockVictimFinder{tracker: tracker}
}

// FindVictim returns the first candidate without a recent access. Two full
// sweeps are enough: the first one clears every accessed bit.
func (c *ClockVictimFinder) FindVictim(
	frames []*Frame,
	skip func(*Frame) bool,
) (*Frame, bool) {
	n := len(frames)
	if n == 0 {
		return nil, false
	}

	for i := 0; i < 2*n; i++ {
		f := frames[c.hand%n]
		c.hand = (c.hand + 1) % n

		if !c.isCandidate(f, skip) {
			continue
		}

		p := f.page
		if c.tracker.IsAccessed(p.pid(), p.vAddr) {
			c.tracker.ClearAccessed(p.pid(), p.vAddr)
			continue
		}

		return f, true
	}

	return nil, false
}

func (c *ClockVictimFinder) isCandidate(f *Frame, skip func(*Frame) bool) bool {
	if f.page == nil || f.pinned {
		return false
	}

	if skip != nil && skip(f) {
		return false
	}

	return true
}
