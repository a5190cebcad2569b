package dag

import (
	"github.com/spectrocloud-labs/herd"

	"github.com/immutos/remount/pkg/state"
)

// RegisterBoot registers the fixed boot sequence: create the boot marker
// and privatize /sysroot propagation, check whether / is writable at all,
// resolve the sysroot.readonly policy, then reconcile /sysroot, /etc and
// /var in that order. Steps are strongly chained so a fatal step stops
// everything after it.
func RegisterBoot(s *state.State, g *herd.Graph) error {
	for _, register := range []func(*herd.Graph) error{
		s.SentinelDagStep,
		s.RootCheckDagStep,
		s.LoadConfigDagStep,
		s.RemountSysrootDagStep,
		s.BindEtcDagStep,
		s.RemountVarDagStep,
	} {
		if err := register(g); err != nil {
			return err
		}
	}
	return nil
}
