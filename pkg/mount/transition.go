package mount

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Outcome is the result of a transition attempt. Everything except
// OutcomeRemounted is a no-op of one flavor or another.
type Outcome int

const (
	OutcomeSkippedSymlink Outcome = iota
	OutcomeSkippedNotMounted
	// OutcomeAlreadyDesired means the mount was already in the requested
	// writability state.
	OutcomeAlreadyDesired
	// OutcomeSkippedNotMountpoint means the kernel rejected the remount
	// with EINVAL, which happens when the target stopped being a
	// mountpoint between inspection and remount.
	OutcomeSkippedNotMountpoint
	OutcomeRemounted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkippedSymlink:
		return "skipped-symlink"
	case OutcomeSkippedNotMounted:
		return "skipped-not-mounted"
	case OutcomeAlreadyDesired:
		return "already-desired"
	case OutcomeSkippedNotMountpoint:
		return "skipped-not-mountpoint"
	case OutcomeRemounted:
		return "remounted"
	default:
		return "unknown"
	}
}

// Direction renders a desired writability the way it appears in kernel
// mount options and in our messages.
func Direction(writable bool) string {
	if writable {
		return "rw"
	}
	return "ro"
}

// Engine decides and performs writability transitions. It never
// terminates the process; fatal conditions surface as errors so the
// caller exits at a single point.
type Engine struct {
	Inspector Inspector
	Mounter   Mounter
}

// NewEngine returns an engine backed by the live mount table.
func NewEngine() *Engine {
	return &Engine{Inspector: HostInspector{}, Mounter: HostMounter{}}
}

// Transition brings target to the requested writability. Symlinks,
// non-mountpoints and mounts already in the desired state are skipped
// without touching anything, so calling this twice in a row mutates the
// table exactly once. The outcome is undefined when err is non-nil.
func (e *Engine) Transition(target string, writable bool) (Outcome, error) {
	in := e.Inspector.Inspect(target)
	switch in.Status {
	case StatusSymlink:
		return OutcomeSkippedSymlink, nil
	case StatusNotMounted:
		return OutcomeSkippedNotMounted, nil
	}
	if !in.ReadOnly == writable {
		return OutcomeAlreadyDesired, nil
	}
	if err := e.Mounter.Remount(target, !writable); err != nil {
		if errors.Is(err, unix.EINVAL) {
			return OutcomeSkippedNotMountpoint, nil
		}
		return 0, fmt.Errorf("failed to remount(%s) %s: %w", Direction(writable), target, err)
	}
	return OutcomeRemounted, nil
}
