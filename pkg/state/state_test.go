package state_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"
	"github.com/spectrocloud-labs/herd"
	vfs "github.com/twpayne/go-vfs/v4"
	"github.com/twpayne/go-vfs/v4/vfst"
	"golang.org/x/sys/unix"

	"github.com/immutos/remount/pkg/mount"
	"github.com/immutos/remount/pkg/state"
	"github.com/immutos/remount/tests/mocks"
)

var _ = Describe("boot sequence", func() {
	var g *herd.Graph
	var s *state.State
	var table *mocks.FakeTable
	var logs *bytes.Buffer
	var cleanup func()

	run := func() error {
		Expect(s.SentinelDagStep(g)).To(Succeed())
		Expect(s.RootCheckDagStep(g)).To(Succeed())
		Expect(s.LoadConfigDagStep(g)).To(Succeed())
		Expect(s.RemountSysrootDagStep(g)).To(Succeed())
		Expect(s.BindEtcDagStep(g)).To(Succeed())
		Expect(s.RemountVarDagStep(g)).To(Succeed())

		err := g.Run(context.Background())
		if err == nil {
			err = s.RunErrors(g)
		}
		return err
	}

	BeforeEach(func() {
		var err error
		var fsys vfs.FS
		fsys, cleanup, err = vfst.NewTestFS(map[string]interface{}{
			"/run": &vfst.Dir{Perm: 0o755},
		})
		Expect(err).ToNot(HaveOccurred())

		g = herd.DAG()
		table = mocks.NewFakeTable()
		logs = &bytes.Buffer{}
		s = &state.State{
			Logger:         zerolog.New(logs),
			Engine:         &mount.Engine{Inspector: table, Mounter: table},
			Mounter:        table,
			RootIsReadonly: func(string) (bool, error) { return false, nil },
			ResolvePolicy:  func(vfs.FS) bool { return false },
			FS:             fsys,
		}
	})

	AfterEach(func() {
		cleanup()
	})

	It("registers the steps as a strict chain", func() {
		Expect(s.SentinelDagStep(g)).To(Succeed())
		Expect(s.RootCheckDagStep(g)).To(Succeed())
		Expect(s.LoadConfigDagStep(g)).To(Succeed())
		Expect(s.RemountSysrootDagStep(g)).To(Succeed())
		Expect(s.BindEtcDagStep(g)).To(Succeed())
		Expect(s.RemountVarDagStep(g)).To(Succeed())

		dag := g.Analyze()
		Expect(len(dag)).To(Equal(6), s.WriteDAG(g))
		for _, layer := range dag {
			Expect(len(layer)).To(Equal(1), s.WriteDAG(g))
		}
		Expect(dag[0][0].Name).To(Equal("create-sentinel"))
		Expect(dag[1][0].Name).To(Equal("root-check"))
		Expect(dag[2][0].Name).To(Equal("load-config"))
		Expect(dag[3][0].Name).To(Equal("remount-sysroot"))
		Expect(dag[4][0].Name).To(Equal("bind-etc"))
		Expect(dag[5][0].Name).To(Equal("remount-var"))
	})

	It("makes sysroot and var writable on a writable root with default policy", func() {
		table.WithMount("/sysroot", true).WithMount("/var", true).WithSymlink("/etc")

		Expect(run()).To(Succeed())
		Expect(table.Remounts).To(Equal([]mocks.RemountCall{
			{Target: "/sysroot", Readonly: false},
			{Target: "/var", Readonly: false},
		}))
		Expect(table.Binds).To(BeEmpty())
		Expect(table.Privates).To(Equal([]string{"/sysroot"}))
		Expect(logs.String()).To(ContainSubstring("Remounted rw: /sysroot"))
		Expect(logs.String()).To(ContainSubstring("Remounted rw: /var"))

		_, err := s.FS.ReadFile("/run/ostree-booted")
		Expect(err).ToNot(HaveOccurred())
	})

	It("touches nothing when the root filesystem is read-only", func() {
		table.WithMount("/sysroot", true).WithMount("/var", true)
		s.RootIsReadonly = func(string) (bool, error) { return true, nil }

		Expect(run()).To(Succeed())
		Expect(table.Remounts).To(BeEmpty())
		Expect(table.Binds).To(BeEmpty())
	})

	It("proceeds to var when the sysroot remount hits EINVAL", func() {
		table.WithMount("/sysroot", true).WithMount("/var", true)
		table.RemountErr["/sysroot"] = unix.EINVAL

		Expect(run()).To(Succeed())
		Expect(table.Remounts).To(Equal([]mocks.RemountCall{
			{Target: "/var", Readonly: false},
		}))
	})

	It("binds and remounts etc when the policy wants sysroot read-only", func() {
		table.WithMount("/sysroot", false).WithMount("/etc", true).WithMount("/var", true)
		s.ResolvePolicy = func(vfs.FS) bool { return true }

		Expect(run()).To(Succeed())
		Expect(table.Binds).To(Equal([]string{"/etc"}))
		Expect(table.Remounts).To(Equal([]mocks.RemountCall{
			{Target: "/sysroot", Readonly: true},
			{Target: "/etc", Readonly: false},
			{Target: "/var", Readonly: false},
		}))
		Expect(logs.String()).To(ContainSubstring("Remounted ro: /sysroot"))
		Expect(logs.String()).To(ContainSubstring("Remounted rw: /etc"))
	})

	It("assumes a writable root when the root check fails", func() {
		table.WithMount("/sysroot", true).WithMount("/var", false)
		s.RootIsReadonly = func(string) (bool, error) { return false, unix.EIO }

		Expect(run()).To(Succeed())
		Expect(table.Remounts).To(Equal([]mocks.RemountCall{
			{Target: "/sysroot", Readonly: false},
		}))
	})

	It("stops before var when the etc bind mount fails", func() {
		table.WithMount("/sysroot", false).WithMount("/etc", false).WithMount("/var", true)
		s.ResolvePolicy = func(vfs.FS) bool { return true }
		table.BindErr = unix.EACCES

		err := run()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("failed to make /etc a bind mount"))
		Expect(table.Remounts).To(Equal([]mocks.RemountCall{
			{Target: "/sysroot", Readonly: true},
		}))
	})

	It("keeps booting when the best-effort marks fail", func() {
		table.WithMount("/sysroot", true).WithMount("/var", true)
		table.PrivateErr = unix.EPERM
		s.FS = vfs.NewReadOnlyFS(s.FS)

		Expect(run()).To(Succeed())
		Expect(table.Remounts).To(HaveLen(2))
		Expect(logs.String()).To(ContainSubstring("best-effort boot marks"))
	})
})
