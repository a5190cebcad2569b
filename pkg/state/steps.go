package state

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spectrocloud-labs/herd"

	cnst "github.com/immutos/remount/internal/constants"
)

// SentinelDagStep creates the /run/ostree-booted marker and makes the
// /sysroot mount private. Both are best effort: the marker is normally
// created by the systemd generator as well, and propagation is a
// hardening measure, so failures are only logged.
func (s *State) SentinelDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpSentinel, herd.WithCallback(func(_ context.Context) error {
		var warns *multierror.Error
		if err := s.FS.WriteFile(cnst.RunOstreeBooted, []byte{}, 0644); err != nil {
			warns = multierror.Append(warns, fmt.Errorf("while creating %s: %w", cnst.RunOstreeBooted, err))
		}
		// systemd remounts / as shared recursively; undo that under
		// /sysroot as early as possible so mounts for e.g. /var/cache
		// don't propagate into the deployment stateroot.
		if err := s.Mounter.MakeRecursivePrivate(cnst.PathSysroot); err != nil {
			warns = multierror.Append(warns, fmt.Errorf("while remounting /sysroot MS_PRIVATE: %w", err))
		}
		if err := warns.ErrorOrNil(); err != nil {
			s.Logger.Warn().Err(err).Msg("best-effort boot marks")
		}
		return nil
	}))
}

// RootCheckDagStep records whether / is on a read-only filesystem. If we
// cannot tell, the root is assumed writable and the sequence proceeds.
func (s *State) RootCheckDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpRootCheck,
		herd.WithDeps(cnst.OpSentinel),
		herd.WithCallback(func(_ context.Context) error {
			ro, err := s.RootIsReadonly("/")
			if err != nil {
				s.Logger.Debug().Err(err).Msg("checking /")
				return nil
			}
			if ro {
				s.RootReadonly = true
				s.Logger.Info().Msg("Root filesystem is read-only, leaving mounts untouched")
			}
			return nil
		}))
}

// LoadConfigDagStep resolves the sysroot.readonly policy once. The result
// is immutable for the rest of the run.
func (s *State) LoadConfigDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpLoadConfig,
		herd.WithDeps(cnst.OpRootCheck),
		herd.WithCallback(func(_ context.Context) error {
			if s.RootReadonly {
				return nil
			}
			s.SysrootReadonly = s.ResolvePolicy(s.FS)
			s.Logger.Debug().Bool("sysroot_readonly", s.SysrootReadonly).Msg("Policy resolved")
			return nil
		}))
}

// RemountSysrootDagStep reconciles /sysroot with the resolved policy.
func (s *State) RemountSysrootDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpRemountSysroot,
		herd.WithDeps(cnst.OpLoadConfig),
		herd.WithCallback(func(_ context.Context) error {
			if s.RootReadonly {
				return nil
			}
			return s.transition(cnst.PathSysroot, !s.SysrootReadonly)
		}))
}

// BindEtcDagStep runs only when the sysroot is configured read-only.
// Remounting the sysroot read-only made /etc read-only too, since it
// lives on the same filesystem. Turn it into a self bind mount first so
// the read-write remount affects /etc alone; without the bind mount the
// remount would hit the whole read-only root, so a bind failure is fatal.
func (s *State) BindEtcDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpBindEtc,
		herd.WithDeps(cnst.OpRemountSysroot),
		herd.WithCallback(func(_ context.Context) error {
			if s.RootReadonly || !s.SysrootReadonly {
				return nil
			}
			if err := s.Mounter.BindSelf(cnst.PathEtc); err != nil {
				err = fmt.Errorf("failed to make /etc a bind mount: %w", err)
				s.Logger.Err(err).Send()
				return err
			}
			return s.transition(cnst.PathEtc, true)
		}))
}

// RemountVarDagStep always wants /var writable. If /var is the ostree
// default bind mount it was remounted read-only together with the
// sysroot; if it is a separate filesystem it is expected writable anyway
// and the transition is a no-op. Strong dep on bind-etc: a fatal bind
// failure must stop the sequence before /var is touched.
func (s *State) RemountVarDagStep(g *herd.Graph) error {
	return g.Add(cnst.OpRemountVar,
		herd.WithDeps(cnst.OpBindEtc),
		herd.WithCallback(func(_ context.Context) error {
			if s.RootReadonly {
				return nil
			}
			return s.transition(cnst.PathVar, true)
		}))
}
