package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
)

func init() {
	itemCmd := &cobra.Command{
		Use:   "item",
		Short: "Manage vault items",
	}

	saveCmd := &cobra.Command{
		Use:   "save [content]",
		Short: "Create or update an item",
		Long:  "Create or update an item. Content is a JSON document, an @file reference or - for stdin. Every save appends a version snapshot.",
		Args:  cobra.ExactArgs(1),
		Run:   runItemSave,
	}
	saveCmd.Flags().String("id", "", "Item id (omit to create)")
	saveCmd.Flags().StringP("name", "N", "", "Item name (required)")
	saveCmd.Flags().StringP("type", "t", "", "Item type: unit, pilot, force, encounter (required)")
	saveCmd.Flags().StringP("message", "m", "", "Version message")
	saveCmd.MarkFlagRequired("name")
	saveCmd.MarkFlagRequired("type")

	getCmd := &cobra.Command{
		Use:   "get [item-id]",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		Run:   runItemGet,
	}

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List items",
		Run:   runItemLs,
	}
	lsCmd.Flags().StringP("type", "t", "", "Only items of this type")

	rmCmd := &cobra.Command{
		Use:   "rm [item-id]",
		Short: "Delete an item (version history is kept)",
		Args:  cobra.ExactArgs(1),
		Run:   runItemRm,
	}

	itemCmd.AddCommand(saveCmd, getCmd, lsCmd, rmCmd)
	RootCmd.AddCommand(itemCmd)
}

func runItemSave(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	content, err := readContentArg(args[0])
	if err != nil {
		exitErr("read content", err)
	}

	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	itemType, _ := cmd.Flags().GetString("type")
	message, _ := cmd.Flags().GetString("message")

	item, snap, err := v.Items.SaveItem(cmd.Context(), services.SaveItemParams{
		Id:      id,
		Type:    models.ItemType(itemType),
		Name:    name,
		Content: content,
		Message: message,
		Actor:   loadedAuthorName(),
	})
	if err != nil {
		exitErr("save item", err)
	}
	printJSON(map[string]any{"item": item, "version": snap.Version})
}

func runItemGet(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	item, err := v.Items.GetItem(cmd.Context(), args[0])
	if err != nil {
		exitErr("get item", err)
	}
	if item == nil {
		exitErr("get item", fmt.Errorf("item %s not found", args[0]))
	}
	printJSON(item)
}

func runItemLs(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	itemType, _ := cmd.Flags().GetString("type")
	items, err := v.Items.ListItems(cmd.Context(), models.ItemType(itemType))
	if err != nil {
		exitErr("list items", err)
	}
	printJSON(items)
}

func runItemRm(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	deleted, err := v.Items.DeleteItem(cmd.Context(), args[0])
	if err != nil {
		exitErr("delete item", err)
	}
	if !deleted {
		exitErr("delete item", fmt.Errorf("item %s not found", args[0]))
	}
	fmt.Println("deleted")
}
