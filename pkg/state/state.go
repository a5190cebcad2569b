package state

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spectrocloud-labs/herd"
	vfs "github.com/twpayne/go-vfs/v4"

	"github.com/immutos/remount/pkg/config"
	"github.com/immutos/remount/pkg/mount"
)

// State carries the resolved policy and the collaborators every boot step
// needs. Collaborators are plain fields so tests swap in fakes.
type State struct {
	Logger zerolog.Logger

	// SysrootReadonly is the policy resolved by the load-config step.
	SysrootReadonly bool
	// RootReadonly is set by the root-check step. When true every
	// later step degenerates to a no-op: clearing the read-only flag
	// on /sysroot would be wrong when / itself is immutable.
	RootReadonly bool

	Engine  *mount.Engine
	Mounter mount.Mounter

	// RootIsReadonly answers whether the filesystem backing a path is
	// mounted read-only.
	RootIsReadonly func(path string) (bool, error)
	// ResolvePolicy resolves the sysroot.readonly policy flag.
	ResolvePolicy func(fsys vfs.FS) bool
	// FS is the filesystem used for the boot marker and the repo config.
	FS vfs.FS
}

// NewState returns a state wired to the live system.
func NewState(logger zerolog.Logger) *State {
	return &State{
		Logger:         logger,
		Engine:         mount.NewEngine(),
		Mounter:        mount.HostMounter{},
		RootIsReadonly: mount.PathIsOnReadonlyFS,
		ResolvePolicy:  config.SysrootReadonly,
		FS:             vfs.OSFS,
	}
}

// transition runs one engine transition and maps the result to the
// user-visible message or the fatal error.
func (s *State) transition(target string, writable bool) error {
	out, err := s.Engine.Transition(target, writable)
	if err != nil {
		s.Logger.Err(err).Str("target", target).Msg("remount")
		return err
	}
	if out == mount.OutcomeRemounted {
		s.Logger.Info().Msg(fmt.Sprintf("Remounted %s: %s", mount.Direction(writable), target))
		return nil
	}
	s.Logger.Debug().Str("target", target).Str("outcome", out.String()).Msg("nothing to remount")
	return nil
}

// WriteDAG writes the dag
func (s *State) WriteDAG(g *herd.Graph) (out string) {
	for i, layer := range g.Analyze() {
		out += fmt.Sprintf("%d.\n", i+1)
		for _, op := range layer {
			if op.Error != nil {
				out += fmt.Sprintf(" <%s> (error: %s) (background: %t) (weak: %t)\n", op.Name, op.Error.Error(), op.Background, op.WeakDeps)
			} else {
				out += fmt.Sprintf(" <%s> (background: %t) (weak: %t)\n", op.Name, op.Background, op.WeakDeps)
			}
		}
	}
	return
}

// RunErrors collects the errors recorded on the graph after a run, so the
// caller exits non-zero even if the runner swallowed them.
func (s *State) RunErrors(g *herd.Graph) error {
	var err *multierror.Error
	for _, layer := range g.Analyze() {
		for _, op := range layer {
			if op.Error != nil {
				err = multierror.Append(err, op.Error)
			}
		}
	}
	return err.ErrorOrNil()
}
