package utils

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the logger shared by all boot steps.
var Log zerolog.Logger

func SetLogger() {
	level := zerolog.InfoLevel

	// Set debug level
	debug := len(ReadCMDLineArg("rd.remount.debug")) > 0
	debugFromEnv := os.Getenv("REMOUNT_DEBUG") != ""
	if debug || debugFromEnv {
		level = zerolog.DebugLevel
	}

	Log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Logger()
}
