package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
)

func init() {
	bundleCmd := &cobra.Command{
		Use:   "bundle",
		Short: "Export and import signed content bundles",
	}

	exportCmd := &cobra.Command{
		Use:   "export [output-file]",
		Short: "Export items into a signed bundle file",
		Args:  cobra.ExactArgs(1),
		Run:   runBundleExport,
	}
	exportCmd.Flags().String("scope", "all", "Scope: item, folder, category, all")
	exportCmd.Flags().String("target", "", "Item or folder id (for item/folder scopes)")
	exportCmd.Flags().String("category", "", "Item type (for category scope)")
	exportCmd.Flags().String("desc", "", "Bundle description")

	previewCmd := &cobra.Command{
		Use:   "preview [bundle-file]",
		Short: "Verify a bundle and show its items and conflicts",
		Args:  cobra.ExactArgs(1),
		Run:   runBundlePreview,
	}

	importCmd := &cobra.Command{
		Use:   "import [bundle-file]",
		Short: "Import a bundle",
		Long:  "Import a bundle. Conflicting items need a --resolve entry, e.g. --resolve <bundle-item-id>=skip|replace|rename|keep_both.",
		Args:  cobra.ExactArgs(1),
		Run:   runBundleImport,
	}
	importCmd.Flags().StringArray("resolve", nil, "Conflict resolution as <bundle-item-id>=<choice> (repeatable)")

	bundleCmd.AddCommand(exportCmd, previewCmd, importCmd)
	RootCmd.AddCommand(bundleCmd)
}

func runBundleExport(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, true)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	scopeType, _ := cmd.Flags().GetString("scope")
	target, _ := cmd.Flags().GetString("target")
	category, _ := cmd.Flags().GetString("category")
	desc, _ := cmd.Flags().GetString("desc")

	bundle, err := v.Bundles.Export(cmd.Context(), services.ExportScope{
		Type:     models.ScopeType(scopeType),
		Id:       target,
		Category: models.ItemType(category),
	}, desc)
	if err != nil {
		exitErr("export", err)
	}

	raw, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		exitErr("encode bundle", err)
	}
	if err := os.WriteFile(args[0], raw, 0o600); err != nil {
		exitErr("write bundle", err)
	}
	fmt.Printf("exported %d item(s) to %s\n", bundle.Metadata.ItemCount, args[0])
}

func runBundlePreview(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read bundle", err)
	}
	preview, err := v.Bundles.PreviewImport(cmd.Context(), raw)
	if err != nil {
		exitErr("preview", err)
	}
	printJSON(preview)
}

func runBundleImport(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		exitErr("read bundle", err)
	}

	pairs, _ := cmd.Flags().GetStringArray("resolve")
	resolutions := make(map[string]models.ImportResolution, len(pairs))
	for _, pair := range pairs {
		id, choice, ok := strings.Cut(pair, "=")
		if !ok {
			exitErr("parse --resolve", fmt.Errorf("%q is not <bundle-item-id>=<choice>", pair))
		}
		resolutions[id] = models.ImportResolution(choice)
	}

	result, err := v.Bundles.Import(cmd.Context(), raw, resolutions, loadedAuthorName())
	if err != nil {
		var clErr *services.ConflictListError
		if errors.As(err, &clErr) {
			fmt.Fprintln(os.Stderr, "import blocked by unresolved conflicts:")
			for _, c := range clErr.Conflicts {
				fmt.Fprintf(os.Stderr, "  %s %q (bundle item %s, local item %s)\n", c.Type, c.Name, c.BundleItemId, c.LocalItemId)
			}
			os.Exit(1)
		}
		exitErr("import", err)
	}
	printJSON(result)
}
