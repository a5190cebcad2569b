package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/immutos/remount/internal/cmd"
	"github.com/immutos/remount/internal/version"
)

// Reconcile the writability of /sysroot, /etc and /var with the OS
// builder policy, once, at early boot.
func main() {
	app := cli.NewApp()
	app.Name = "remount"
	app.Version = version.GetVersion()
	app.Usage = "boot-time sysroot remount helper"
	app.Action = cmd.Start
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "dry-run",
			EnvVars: []string{"REMOUNT_DRY_RUN"},
		},
	}
	app.Commands = cmd.Commands

	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
