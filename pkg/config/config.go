package config

import (
	"github.com/immutos/remount/internal/constants"
	internalUtils "github.com/immutos/remount/internal/utils"
	vfs "github.com/twpayne/go-vfs/v4"
	"gopkg.in/ini.v1"
)

// SysrootReadonly resolves the sysroot.readonly policy from the ostree
// repository config. A missing, unreadable or unparseable config degrades
// to the default (sysroot writable). Never fails the process.
//
// A true value is currently force-ignored for compatibility; we only
// advertise that we saw it. See
// https://github.com/coreos/fedora-coreos-tracker/issues/488. Do not
// "fix" this back to honoring the config.
func SysrootReadonly(fsys vfs.FS) bool {
	data, err := fsys.ReadFile(constants.RepoConfig)
	if err != nil {
		return false
	}
	cfg, err := ini.Load(data)
	if err != nil {
		return false
	}
	if ro, err := cfg.Section("sysroot").Key("readonly").Bool(); err == nil && ro {
		internalUtils.Log.Info().Msg("Ignoring sysroot.readonly config; see https://github.com/coreos/fedora-coreos-tracker/issues/488.")
	}
	return false
}
