package utils

import (
	"os"
	"strings"
)

// GetHostProcCmdline returns the path to the kernel cmdline. Overridable
// via HOST_PROC_CMDLINE so tests can point it at a fake file.
func GetHostProcCmdline() string {
	proc := os.Getenv("HOST_PROC_CMDLINE")
	if proc == "" {
		return "/proc/cmdline"
	}
	return proc
}

// ReadCMDLineArg returns the values of all cmdline stanzas matching the
// given prefix. Stanzas without a value ("rd.remount.debug") yield one
// empty string, so callers can test for presence with len() > 0.
func ReadCMDLineArg(arg string) []string {
	cmdLine, err := os.ReadFile(GetHostProcCmdline())
	if err != nil {
		return []string{}
	}
	res := []string{}
	fields := strings.Fields(string(cmdLine))
	for _, f := range fields {
		if strings.HasPrefix(f, arg) {
			dat := strings.Split(f, arg)
			res = append(res, dat[1])
		}
	}
	return res
}
