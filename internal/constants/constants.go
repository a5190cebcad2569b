package constants

const (
	OpSentinel       = "create-sentinel"
	OpRootCheck      = "root-check"
	OpLoadConfig     = "load-config"
	OpRemountSysroot = "remount-sysroot"
	OpBindEtc        = "bind-etc"
	OpRemountVar     = "remount-var"

	// The three targets whose writability we reconcile, in boot order.
	PathSysroot = "/sysroot"
	PathEtc     = "/etc"
	PathVar     = "/var"

	// RepoConfig is the ostree repository config written by the OS builder.
	RepoConfig = "/ostree/repo/config"

	// RunOstreeBooted marks an ostree-booted system for other boot units.
	// Normally created by the systemd generator, we create it here as well
	// for redundancy.
	RunOstreeBooted = "/run/ostree-booted"
)
