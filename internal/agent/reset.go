package agent

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

// ErrAckMismatch indicates the station answered a maintenance command with
// something other than the acknowledgment token. The command stays armed so
// the next cycle retries it.
var ErrAckMismatch = errors.New("maintenance command not acknowledged")

// ackToken is the literal body the station returns for an accepted command.
const ackToken = "ok"

// resetCoordinator arms the once-daily station reset in the first poll cycle
// after local midnight and verifies its acknowledgment.
type resetCoordinator struct {
	pin          string
	pollInterval time.Duration
	settle       time.Duration
	command      string // pending command path suffix, empty when idle

	// testOffset shifts the midnight window for exercising the reset path
	// without waiting for midnight. Negative disables it.
	testOffset time.Duration
}

func newResetCoordinator(pin string, pollInterval, settle time.Duration) *resetCoordinator {
	return &resetCoordinator{
		pin:          pin,
		pollInterval: pollInterval,
		settle:       settle,
		testOffset:   -1,
	}
}

// Command returns the pending command suffix, or "" when none is armed.
func (rc *resetCoordinator) Command() string { return rc.command }

// arm queues the station reset for the next fetch.
func (rc *resetCoordinator) arm() {
	rc.command = "/" + rc.pin + "/r"
}

// check arms the reset when now falls in the first poll interval after
// midnight. A command still pending from an earlier tick is left as is, so
// the arming log fires once per window rather than every tick.
func (rc *resetCoordinator) check(now time.Time) {
	if rc.command != "" {
		return
	}
	elapsed := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second
	if rc.testOffset >= 0 {
		if elapsed < rc.testOffset {
			elapsed = rc.testOffset - elapsed
		} else {
			elapsed -= rc.testOffset
		}
	}
	if elapsed < rc.pollInterval {
		log.Printf("sending midnight reset signal")
		rc.arm()
	}
}

// acknowledge verifies the station's response to a pending command. The
// acknowledgment token clears the command and holds off polling for the
// settle duration so the station can reboot and reassociate; any other body
// leaves the command armed and returns ErrAckMismatch.
func (rc *resetCoordinator) acknowledge(ctx context.Context, body string) error {
	if strings.TrimSpace(body) != ackToken {
		return ErrAckMismatch
	}
	rc.command = ""
	select {
	case <-time.After(rc.settle):
	case <-ctx.Done():
	}
	return nil
}
