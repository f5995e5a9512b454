// Package cli implements the mekvault CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/logging"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/config"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/signx"
)

// identitySalt keeps passphrase-derived signing keys stable across runs. The
// passphrase itself is the secret; the salt only namespaces the derivation.
var identitySalt = []byte("mekvault.identity.v1")

var verbose bool

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "mekvault",
	Short: "Personal content vault for tabletop campaigns",
	Long:  "Local-first vault for units, pilots, forces and encounters: folders, version history, share links and signed bundle transfer. SQLite-backed, single binary.",
}

func init() {
	// these mirror the config package's short flags so cobra accepts them;
	// the config loader reads the values straight from os.Args
	RootCmd.PersistentFlags().StringP("db", "d", "", "Path to the vault database file")
	RootCmd.PersistentFlags().StringP("author", "n", "", "Author display name for exported bundles")
	RootCmd.PersistentFlags().StringP("friend-code", "f", "", "Friend code for exported bundles")
	RootCmd.PersistentFlags().StringP("config", "c", "", "Path to a JSON config file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger() logging.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return logging.NewSlogLogger(slog.New(h))
}

// promptPassphrase obtains the signing passphrase, preferring the
// MEKVAULT_PASSPHRASE environment variable over an interactive prompt.
func promptPassphrase() ([]byte, error) {
	if env := os.Getenv("MEKVAULT_PASSPHRASE"); env != "" {
		return []byte(env), nil
	}
	fmt.Fprint(os.Stderr, "passphrase: ")
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return pass, nil
}

// openVault loads config and assembles the engine. withIdentity controls
// whether the signing key is derived from the user's passphrase; commands
// that never sign skip the prompt.
func openVault(cmd *cobra.Command, withIdentity bool) (*vault.Vault, error) {
	cfg := config.LoadConfig()

	var signer signx.Signer
	if withIdentity {
		pass, err := promptPassphrase()
		if err != nil {
			return nil, err
		}
		signer = signx.NewSignerFromPassphrase(pass, identitySalt)
	} else {
		signer = signx.NewSignerFromPassphrase(nil, identitySalt)
	}

	return vault.Open(cmd.Context(), cfg, signer, newLogger())
}

// loadedAuthorName is the actor recorded on version snapshots.
func loadedAuthorName() string {
	return config.LoadConfig().AuthorName
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Println(string(b))
}

// readContentArg resolves JSON content from a positional argument, an @file
// reference or stdin ("-").
func readContentArg(arg string) ([]byte, error) {
	switch {
	case arg == "-":
		return io.ReadAll(os.Stdin)
	case len(arg) > 1 && arg[0] == '@':
		return os.ReadFile(arg[1:])
	default:
		return []byte(arg), nil
	}
}
