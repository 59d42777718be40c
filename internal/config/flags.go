package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/facekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   data directory
//	-db string  database driver (sqlite or postgres)
//	-dsn string database DSN
//	-k string   key source (ephemeral, file or kms)
//	-s string   frame source (camera or spool)
//	-spool string spool directory
//	-cascade string face detector cascade file
//	-l string   log level
//
// Other arguments are filtered out with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-d", "-db", "-dsn", "-k", "-s", "-spool", "-cascade", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.DatabaseDriver, "db", cfg.DatabaseDriver, "database driver (sqlite|postgres)")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.KeySource, "k", cfg.KeySource, "key source (ephemeral|file|kms)")
	fs.StringVar(&cfg.FrameSource, "s", cfg.FrameSource, "frame source (camera|spool)")
	fs.StringVar(&cfg.SpoolDir, "spool", cfg.SpoolDir, "spool directory")
	fs.StringVar(&cfg.CascadePath, "cascade", cfg.CascadePath, "face detector cascade file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
