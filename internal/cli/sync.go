package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
)

func init() {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Detect and resolve divergences against a peer",
	}

	detectCmd := &cobra.Command{
		Use:   "detect [heads-file]",
		Short: "Compare a peer's item heads against local history",
		Long:  "Compare a peer's item heads against local history. The heads file is a JSON array of {itemId, contentType, version, contentHash, ancestorVersion}.",
		Args:  cobra.ExactArgs(1),
		Run:   runSyncDetect,
	}
	detectCmd.Flags().String("peer", "", "Peer name recorded on detected conflicts (required)")
	detectCmd.MarkFlagRequired("peer")

	resolveCmd := &cobra.Command{
		Use:   "resolve [conflict-file] [choice]",
		Short: "Apply a resolution: local, remote or fork",
		Long:  "Apply a resolution to one conflict from a detect run. The conflict file holds one JSON conflict object; remote and fork also need --content.",
		Args:  cobra.ExactArgs(2),
		Run:   runSyncResolve,
	}
	resolveCmd.Flags().String("content", "", "Remote content as JSON, an @file reference or - for stdin")

	syncCmd.AddCommand(detectCmd, resolveCmd)
	RootCmd.AddCommand(syncCmd)
}

func runSyncDetect(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read heads", err)
	}
	var heads []services.RemoteHead
	if err := json.Unmarshal(raw, &heads); err != nil {
		exitErr("parse heads", err)
	}

	peer, _ := cmd.Flags().GetString("peer")
	conflicts, err := v.Conflicts.Detect(cmd.Context(), peer, heads)
	if err != nil {
		exitErr("detect", err)
	}
	printJSON(conflicts)
}

func runSyncResolve(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read conflict", err)
	}
	var conflict models.SyncConflict
	if err := json.Unmarshal(raw, &conflict); err != nil {
		exitErr("parse conflict", err)
	}

	var remoteContent []byte
	if contentArg, _ := cmd.Flags().GetString("content"); contentArg != "" {
		remoteContent, err = readContentArg(contentArg)
		if err != nil {
			exitErr("read content", err)
		}
	}

	choice := models.Resolution(args[1])
	if err := v.Conflicts.Resolve(cmd.Context(), conflict, choice, remoteContent, loadedAuthorName()); err != nil {
		exitErr("resolve", err)
	}
	printJSON(map[string]any{"resolved": conflict.ItemId, "choice": choice})
}
