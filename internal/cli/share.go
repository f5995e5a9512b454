package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
)

func init() {
	shareCmd := &cobra.Command{
		Use:   "share",
		Short: "Issue and manage share links",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a share link",
		Run:   runShareCreate,
	}
	createCmd.Flags().String("scope", "", "Scope: item, folder, category, all (required)")
	createCmd.Flags().String("target", "", "Item or folder id (for item/folder scopes)")
	createCmd.Flags().String("category", "", "Item type (for category scope)")
	createCmd.Flags().String("level", "read", "Access level: read, write, admin")
	createCmd.Flags().Duration("ttl", 0, "Lifetime, e.g. 72h (0 means no expiry)")
	createCmd.Flags().Int64("max-uses", 0, "Redemption cap (0 means unlimited)")
	createCmd.Flags().String("label", "", "Human label")
	createCmd.MarkFlagRequired("scope")

	redeemCmd := &cobra.Command{
		Use:   "redeem [token]",
		Short: "Redeem a share link token",
		Args:  cobra.ExactArgs(1),
		Run:   runShareRedeem,
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List share links, newest first",
		Run:   runShareLs,
	}

	offCmd := &cobra.Command{
		Use:   "off [link-id]",
		Short: "Deactivate a link",
		Args:  cobra.ExactArgs(1),
		Run:   runShareOff,
	}

	onCmd := &cobra.Command{
		Use:   "on [link-id]",
		Short: "Reactivate a link",
		Args:  cobra.ExactArgs(1),
		Run:   runShareOn,
	}

	rmCmd := &cobra.Command{
		Use:   "rm [link-id]",
		Short: "Delete a link",
		Args:  cobra.ExactArgs(1),
		Run:   runShareRm,
	}

	setCmd := &cobra.Command{
		Use:   "set [link-id]",
		Short: "Update a link's label, expiry or use cap",
		Args:  cobra.ExactArgs(1),
		Run:   runShareSet,
	}
	setCmd.Flags().String("label", "", "New label")
	setCmd.Flags().Duration("ttl", 0, "New lifetime from now, e.g. 72h")
	setCmd.Flags().Bool("no-expiry", false, "Clear the expiry")
	setCmd.Flags().Int64("max-uses", 0, "New redemption cap")
	setCmd.Flags().Bool("no-max-uses", false, "Clear the redemption cap")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired links now",
		Run:   runShareSweep,
	}

	shareCmd.AddCommand(createCmd, redeemCmd, lsCmd, offCmd, onCmd, rmCmd, setCmd, sweepCmd)
	RootCmd.AddCommand(shareCmd)
}

func runShareCreate(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	scope, _ := cmd.Flags().GetString("scope")
	level, _ := cmd.Flags().GetString("level")
	label, _ := cmd.Flags().GetString("label")

	p := services.CreateLinkParams{
		ScopeType: models.ScopeType(scope),
		Level:     models.AccessLevel(level),
		Label:     label,
	}
	if target, _ := cmd.Flags().GetString("target"); target != "" {
		p.ScopeId = &target
	}
	if category, _ := cmd.Flags().GetString("category"); category != "" {
		c := models.ItemType(category)
		p.ScopeCategory = &c
	}
	if ttl, _ := cmd.Flags().GetDuration("ttl"); ttl > 0 {
		exp := time.Now().UTC().Add(ttl)
		p.ExpiresAt = &exp
	}
	if maxUses, _ := cmd.Flags().GetInt64("max-uses"); maxUses > 0 {
		p.MaxUses = &maxUses
	}

	link, err := v.Links.Create(cmd.Context(), p)
	if err != nil {
		exitErr("create link", err)
	}
	printJSON(link)
}

func runShareRedeem(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	link, err := v.Links.Redeem(cmd.Context(), args[0])
	if err != nil {
		exitErr("redeem", err)
	}
	printJSON(link)
}

func runShareLs(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	links, err := v.Links.List(cmd.Context())
	if err != nil {
		exitErr("list links", err)
	}
	printJSON(links)
}

func runShareOff(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	ok, err := v.Links.Deactivate(cmd.Context(), args[0])
	if err != nil {
		exitErr("deactivate", err)
	}
	if !ok {
		exitErr("deactivate", fmt.Errorf("link %s not found or already inactive", args[0]))
	}
	fmt.Println("deactivated")
}

func runShareOn(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	ok, err := v.Links.Reactivate(cmd.Context(), args[0])
	if err != nil {
		exitErr("reactivate", err)
	}
	if !ok {
		exitErr("reactivate", fmt.Errorf("link %s not found or already active", args[0]))
	}
	fmt.Println("reactivated")
}

func runShareRm(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	ok, err := v.Links.Delete(cmd.Context(), args[0])
	if err != nil {
		exitErr("delete link", err)
	}
	if !ok {
		exitErr("delete link", fmt.Errorf("link %s not found", args[0]))
	}
	fmt.Println("deleted")
}

func runShareSet(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	id := args[0]
	changed := false

	if cmd.Flags().Changed("label") {
		label, _ := cmd.Flags().GetString("label")
		ok, err := v.Links.UpdateLabel(cmd.Context(), id, label)
		if err != nil {
			exitErr("update label", err)
		}
		if !ok {
			exitErr("update label", fmt.Errorf("link %s not found", id))
		}
		changed = true
	}

	if noExpiry, _ := cmd.Flags().GetBool("no-expiry"); noExpiry || cmd.Flags().Changed("ttl") {
		var expiresAt *time.Time
		if !noExpiry {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			exp := time.Now().UTC().Add(ttl)
			expiresAt = &exp
		}
		ok, err := v.Links.UpdateExpiry(cmd.Context(), id, expiresAt)
		if err != nil {
			exitErr("update expiry", err)
		}
		if !ok {
			exitErr("update expiry", fmt.Errorf("link %s not found", id))
		}
		changed = true
	}

	if noMax, _ := cmd.Flags().GetBool("no-max-uses"); noMax || cmd.Flags().Changed("max-uses") {
		var maxUses *int64
		if !noMax {
			n, _ := cmd.Flags().GetInt64("max-uses")
			maxUses = &n
		}
		ok, err := v.Links.UpdateMaxUses(cmd.Context(), id, maxUses)
		if err != nil {
			exitErr("update max uses", err)
		}
		if !ok {
			exitErr("update max uses", fmt.Errorf("link %s not found", id))
		}
		changed = true
	}

	if !changed {
		exitErr("set", fmt.Errorf("nothing to change; pass --label, --ttl or --max-uses"))
	}
	fmt.Println("updated")
}

func runShareSweep(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	n, err := v.Links.CleanupExpired(cmd.Context())
	if err != nil {
		exitErr("sweep", err)
	}
	fmt.Printf("removed %d expired link(s)\n", n)
}
