package opensched

import (
	"fmt"
	"io"
	"os"
)

// The scheduler's error taxonomy. Every variant is fatal at first
// detection: a diagnostic is written to the log and the process
// terminates. There is no recoverable path out of any of these, since
// silent misbehavior here corrupts downstream simulation metrics.

// ConfigurationError covers unknown distribution/queue/mapping policy
// names, a non-rectangular core grid, an unknown suite/benchmark, or a
// parallelism value outside the configured profile.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Msg }

// InvariantViolation is raised by the periodic invariant check when
// free-core accounting or task-state accounting no longer sums correctly.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string { return "invariant violation: " + e.Msg }

// BootstrapError means task 0's mandatory initial schedule failed.
type BootstrapError struct {
	Msg string
}

func (e *BootstrapError) Error() string { return "bootstrap error: " + e.Msg }

// PinningError means a non-primary thread could not obtain a core at
// creation time.
type PinningError struct {
	Msg string
}

func (e *PinningError) Error() string { return "pinning error: " + e.Msg }

// InternalError covers conditions that should be structurally impossible,
// such as the idle fast-forward computing nextArrivalTime == 0.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }

// osExit is the process-termination seam fatal calls through, injected
// the same way HostSimulator/Config/MappingPolicy/QueueDiscipline are
// (Design Notes §9) so tests can exercise a fatal path without killing
// the test binary.
var osExit = os.Exit

// fatal writes a diagnostic to w and terminates the process. It mirrors
// the source's `cout << ...; exit(1);` idiom: a panic would be a
// recoverable condition to a careless caller, which these are not meant
// to be.
func fatal(w io.Writer, err error) {
	fmt.Fprintf(w, "\n[Scheduler] [Error]: %v\n", err)
	osExit(1)
}
