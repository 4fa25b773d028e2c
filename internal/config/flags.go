package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/totpkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to the flags it knows about using
// flagx.FilterArgs, so the -c/-config flag handled by parseJSON does not
// interfere. It panics on malformed values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-b", "-k", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.StoreFile, "s", cfg.StoreFile, "entry store file")
	fs.StringVar(&cfg.SettingsBackend, "b", cfg.SettingsBackend, "settings backend (json or sqlite)")
	fs.IntVar(&cfg.KDFIterations, "k", cfg.KDFIterations, "PBKDF2 iterations for new keys")
	refresh := fs.Int("r", int(cfg.RefreshInterval.Seconds()), "code refresh interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "r" {
			cfg.RefreshInterval = time.Duration(*refresh) * time.Second
		}
	})
}
