package config

import (
	"flag"
	"os"
	"time"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   path to the vault database file (default from Config)
//	-n string   author display name for exported bundles
//	-f string   friend code for exported bundles
//	-i int      expired link sweep interval in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-n", "-f", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the vault database file")
	fs.StringVar(&cfg.AuthorName, "n", cfg.AuthorName, "author display name for exported bundles")
	fs.StringVar(&cfg.FriendCode, "f", cfg.FriendCode, "friend code for exported bundles")
	linkSweepInterval := fs.Int("i", int(cfg.LinkSweepInterval.Seconds()), "expired link sweep interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.LinkSweepInterval = time.Duration(*linkSweepInterval) * time.Second
}
