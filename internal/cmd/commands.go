package cmd

import (
	"context"

	"github.com/spectrocloud-labs/herd"
	"github.com/urfave/cli/v2"

	"github.com/immutos/remount/internal/utils"
	"github.com/immutos/remount/internal/version"
	"github.com/immutos/remount/pkg/dag"
	"github.com/immutos/remount/pkg/state"
)

// Start reconciles the writability of /sysroot, /etc and /var once and
// exits. Any given positional arguments are ignored.
func Start(c *cli.Context) error {
	utils.SetLogger()

	v := version.Get()
	utils.Log.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("remount")

	s := state.NewState(utils.Log)
	g := herd.DAG()

	if err := dag.RegisterBoot(s, g); err != nil {
		utils.Log.Err(err).Send()
		return err
	}

	utils.Log.Info().Msg(s.WriteDAG(g))

	// Once we print the dag we can exit already
	if c.Bool("dry-run") {
		return nil
	}

	err := g.Run(context.Background())
	utils.Log.Info().Msg(s.WriteDAG(g))
	if err == nil {
		err = s.RunErrors(g)
	}
	return err
}

var Commands = []*cli.Command{
	{
		Name:   "start",
		Usage:  "reconcile mount writability with the ostree repo config",
		Action: Start,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				EnvVars: []string{"REMOUNT_DRY_RUN"},
			},
		},
	},
	{
		Name:  "version",
		Usage: "version",
		Action: func(_ *cli.Context) error {
			utils.SetLogger()
			v := version.Get()
			utils.Log.Info().Str("commit", v.GitCommit).Str("compiled with", v.GoVersion).Str("version", v.Version).Msg("remount")
			return nil
		},
	},
}
