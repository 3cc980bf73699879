package agent

// statusTracker derives the station's online/offline status from consecutive
// cycle failures. A single failure never flips the status; only reaching the
// threshold does, and each transition is reported exactly once so side
// effects fire on edges rather than every cycle.
type statusTracker struct {
	threshold int
	failures  int
	online    bool
}

func newStatusTracker(threshold int) *statusTracker {
	if threshold <= 0 {
		threshold = 3
	}
	return &statusTracker{threshold: threshold, online: true}
}

// Success resets the failure count and reports whether this success brought
// the station back online.
func (t *statusTracker) Success() (cameOnline bool) {
	t.failures = 0
	if !t.online {
		t.online = true
		return true
	}
	return false
}

// Failure counts one failed cycle and reports whether it crossed the
// threshold, taking the station offline.
func (t *statusTracker) Failure() (wentOffline bool) {
	t.failures++
	if t.online && t.failures >= t.threshold {
		t.online = false
		return true
	}
	return false
}

func (t *statusTracker) Online() bool  { return t.online }
func (t *statusTracker) Failures() int { return t.failures }
