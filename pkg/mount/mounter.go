package mount

import (
	"github.com/containerd/containerd/mount"
	"golang.org/x/sys/unix"
)

// Mounter is the minimal capability surface over the live mount table.
// The transition engine and the boot steps only mutate mounts through it,
// so tests can substitute a simulated table.
type Mounter interface {
	// Remount flips the ro/rw flag of an existing mount in place.
	Remount(target string, readonly bool) error
	// BindSelf turns target into a bind mount of itself so it can be
	// remounted independently of the filesystem it lives on.
	BindSelf(target string) error
	// MakeRecursivePrivate stops mount event propagation under target.
	MakeRecursivePrivate(target string) error
}

// HostMounter mutates the live mount table.
type HostMounter struct{}

func (HostMounter) Remount(target string, readonly bool) error {
	flags := uintptr(unix.MS_REMOUNT | unix.MS_SILENT)
	if readonly {
		flags |= unix.MS_RDONLY
	}
	return unix.Mount(target, target, "", flags, "")
}

func (HostMounter) BindSelf(target string) error {
	return mount.All([]mount.Mount{{
		Type:    "none",
		Source:  target,
		Options: []string{"bind"},
	}}, target)
}

func (HostMounter) MakeRecursivePrivate(target string) error {
	return unix.Mount("none", target, "", unix.MS_REC|unix.MS_PRIVATE, "")
}
