package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/models"
	"github.com/SwiggitySwerve/MekStation-sub005/internal/vault/services"
)

func init() {
	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "Organize items into a folder tree",
	}

	createCmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderCreate,
	}
	createCmd.Flags().String("parent", "", "Parent folder id (omit for a root folder)")
	createCmd.Flags().String("desc", "", "Folder description")
	createCmd.Flags().Bool("shared", false, "Mark the folder as shared")

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List folders",
		Run:   runFolderLs,
	}
	lsCmd.Flags().String("parent", "", "List children of this folder (omit for roots)")
	lsCmd.Flags().Bool("all", false, "List every folder")
	lsCmd.Flags().Bool("shared", false, "List only shared folders")

	mvCmd := &cobra.Command{
		Use:   "mv [folder-id]",
		Short: "Move a folder under a new parent",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderMv,
	}
	mvCmd.Flags().String("parent", "", "New parent folder id (omit to move to the root)")

	rmCmd := &cobra.Command{
		Use:   "rm [folder-id]",
		Short: "Delete a folder (children move up, items survive)",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderRm,
	}

	addCmd := &cobra.Command{
		Use:   "add [folder-id] [item-id] [item-type]",
		Short: "Assign an item to a folder",
		Args:  cobra.ExactArgs(3),
		Run:   runFolderAdd,
	}

	removeCmd := &cobra.Command{
		Use:   "remove [folder-id] [item-id] [item-type]",
		Short: "Remove an item assignment from a folder",
		Args:  cobra.ExactArgs(3),
		Run:   runFolderRemove,
	}

	itemsCmd := &cobra.Command{
		Use:   "items [folder-id]",
		Short: "List a folder's item assignments",
		Args:  cobra.ExactArgs(1),
		Run:   runFolderItems,
	}

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the folder hierarchy",
		Run:   runFolderTree,
	}

	folderCmd.AddCommand(createCmd, lsCmd, mvCmd, rmCmd, addCmd, removeCmd, itemsCmd, treeCmd)
	RootCmd.AddCommand(folderCmd)
}

func runFolderCreate(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	opts := services.CreateFolderOptions{}
	if parent, _ := cmd.Flags().GetString("parent"); parent != "" {
		opts.ParentId = &parent
	}
	if desc, _ := cmd.Flags().GetString("desc"); desc != "" {
		opts.Description = &desc
	}
	opts.IsShared, _ = cmd.Flags().GetBool("shared")

	f, err := v.Folders.CreateFolder(cmd.Context(), args[0], opts)
	if err != nil {
		exitErr("create folder", err)
	}
	printJSON(f)
}

func runFolderLs(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	var folders []models.VaultFolder
	all, _ := cmd.Flags().GetBool("all")
	shared, _ := cmd.Flags().GetBool("shared")
	parent, _ := cmd.Flags().GetString("parent")
	switch {
	case shared:
		folders, err = v.Folders.GetSharedFolders(cmd.Context())
	case all:
		folders, err = v.Folders.GetAllFolders(cmd.Context())
	case parent != "":
		folders, err = v.Folders.GetChildFolders(cmd.Context(), parent)
	default:
		folders, err = v.Folders.GetRootFolders(cmd.Context())
	}
	if err != nil {
		exitErr("list folders", err)
	}
	printJSON(folders)
}

func runFolderMv(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	var parentId *string
	if parent, _ := cmd.Flags().GetString("parent"); parent != "" {
		parentId = &parent
	}
	moved, err := v.Folders.MoveFolder(cmd.Context(), args[0], parentId)
	if err != nil {
		exitErr("move folder", err)
	}
	if !moved {
		exitErr("move folder", fmt.Errorf("folder %s not found", args[0]))
	}
	fmt.Println("moved")
}

func runFolderRm(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	deleted, err := v.Folders.DeleteFolder(cmd.Context(), args[0])
	if err != nil {
		exitErr("delete folder", err)
	}
	if !deleted {
		exitErr("delete folder", fmt.Errorf("folder %s not found", args[0]))
	}
	fmt.Println("deleted")
}

func runFolderAdd(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	if err := v.Folders.AddItemToFolder(cmd.Context(), args[0], args[1], models.ItemType(args[2])); err != nil {
		exitErr("add item", err)
	}
	fmt.Println("added")
}

func runFolderRemove(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	removed, err := v.Folders.RemoveItemFromFolder(cmd.Context(), args[0], args[1], models.ItemType(args[2]))
	if err != nil {
		exitErr("remove item", err)
	}
	if !removed {
		exitErr("remove item", fmt.Errorf("item %s is not in folder %s", args[1], args[0]))
	}
	fmt.Println("removed")
}

func runFolderTree(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	all, err := v.Folders.GetAllFolders(cmd.Context())
	if err != nil {
		exitErr("list folders", err)
	}

	children := map[string][]models.VaultFolder{}
	var roots []models.VaultFolder
	for _, f := range all {
		if f.ParentId == nil {
			roots = append(roots, f)
		} else {
			children[*f.ParentId] = append(children[*f.ParentId], f)
		}
	}

	var print func(f models.VaultFolder, indent string)
	print = func(f models.VaultFolder, indent string) {
		fmt.Printf("%s%s (%d item(s))  %s\n", indent, f.Name, f.ItemCount, f.Id)
		for _, child := range children[f.Id] {
			print(child, indent+"  ")
		}
	}
	for _, root := range roots {
		print(root, "")
	}
}

func runFolderItems(cmd *cobra.Command, args []string) {
	v, err := openVault(cmd, false)
	if err != nil {
		exitErr("open vault", err)
	}
	defer v.Close()

	items, err := v.Folders.GetFolderItems(cmd.Context(), args[0])
	if err != nil {
		exitErr("list folder items", err)
	}
	printJSON(items)
}
