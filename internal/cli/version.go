package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
)

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Inspect and roll back item history",
	}

	lsCmd := &cobra.Command{
		Use:   "ls [item-id] [item-type]",
		Short: "List an item's versions, newest first",
		Args:  cobra.ExactArgs(2),
		Run:   runVersionLs,
	}

	showCmd := &cobra.Command{
		Use:   "show [item-id] [item-type] [version]",
		Short: "Show one version snapshot",
		Args:  cobra.ExactArgs(3),
		Run:   runVersionShow,
	}

	diffCmd := &cobra.Command{
		Use:   "diff [item-id] [item-type] [from] [to]",
		Short: "Compare two versions field by field",
		Args:  cobra.ExactArgs(4),
		Run:   runVersionDiff,
	}
	diffCmd.Flags().Bool("json", false, "Emit the structural diff as JSON instead of text")

	rollbackCmd := &cobra.Command{
		Use:   "rollback [item-id] [item-type] [version]",
		Short: "Restore an old version as a new snapshot",
		Args:  cobra.ExactArgs(3),
		Run:   runVersionRollback,
	}

	versionCmd.AddCommand(lsCmd, showCmd, diffCmd, rollbackCmd)
	RootCmd.AddCommand(versionCmd)
}

func parseVersionArg(arg string) int64 {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		exitErr("parse version", fmt.Errorf("%q is not a version number", arg))
	}
	return n
}

func runVersionLs(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	history, err := v.Versions.ListVersions(cmd.Context(), args[0], models.ItemType(args[1]))
	if err != nil {
		exitErr("list versions", err)
	}
	printJSON(history)
}

func runVersionShow(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	snap, err := v.Versions.GetVersion(cmd.Context(), args[0], models.ItemType(args[1]), parseVersionArg(args[2]))
	if err != nil {
		exitErr("get version", err)
	}
	if snap == nil {
		exitErr("get version", fmt.Errorf("version %s of item %s not found", args[2], args[0]))
	}
	printJSON(snap)
}

func runVersionDiff(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	diff, err := v.Versions.Diff(cmd.Context(), args[0], models.ItemType(args[1]), parseVersionArg(args[2]), parseVersionArg(args[3]))
	if err != nil {
		exitErr("diff versions", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		printJSON(diff)
		return
	}
	fmt.Print(services.RenderDiff(diff))
}

func runVersionRollback(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	snap, err := v.Versions.Rollback(cmd.Context(), args[0], models.ItemType(args[1]), parseVersionArg(args[2]), loadedAuthorName())
	if err != nil {
		exitErr("rollback", err)
	}
	printJSON(snap)
}
