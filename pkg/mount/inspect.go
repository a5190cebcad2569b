package mount

import (
	"github.com/moby/sys/mountinfo"
	"golang.org/x/sys/unix"
)

// Status describes what the inspector found at a path.
type Status int

const (
	// StatusSymlink is reported for symbolic links. We expect these to
	// point into /sysroot, so there is no bind mount behind them.
	StatusSymlink Status = iota
	// StatusNotMounted is reported when the path is missing, is not a
	// mountpoint, or its mount flags cannot be read.
	StatusNotMounted
	// StatusMounted is reported for a live mountpoint with readable flags.
	StatusMounted
)

func (s Status) String() string {
	switch s {
	case StatusSymlink:
		return "symlink"
	case StatusNotMounted:
		return "not-mounted"
	case StatusMounted:
		return "mounted"
	default:
		return "unknown"
	}
}

// Inspection is the result of a single mount state query.
type Inspection struct {
	Status   Status
	ReadOnly bool
}

// Inspector reports the current mount state of a path. Implementations
// must be pure queries with no side effects.
type Inspector interface {
	Inspect(path string) Inspection
}

// HostInspector reads the live mount table.
type HostInspector struct{}

func (HostInspector) Inspect(path string) Inspection {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return Inspection{Status: StatusNotMounted}
	}
	if st.Mode&unix.S_IFMT == unix.S_IFLNK {
		return Inspection{Status: StatusSymlink}
	}
	if mounted, err := mountinfo.Mounted(path); err != nil || !mounted {
		return Inspection{Status: StatusNotMounted}
	}
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return Inspection{Status: StatusNotMounted}
	}
	return Inspection{Status: StatusMounted, ReadOnly: fs.Flags&unix.ST_RDONLY != 0}
}

// PathIsOnReadonlyFS reports whether the filesystem backing path is
// mounted read-only. An unreadable path is reported as writable, so a
// broken statfs never blocks the boot sequence.
func PathIsOnReadonlyFS(path string) (bool, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return false, err
	}
	return fs.Flags&unix.ST_RDONLY != 0, nil
}
