package cli

import (
	"fmt"
	"log"

	"github.com/javanhut/minit/internal/colors"
	"github.com/javanhut/minit/internal/digest"
	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var lsTreeRecursive bool

var lsTreeCmd = &cobra.Command{
	Use:   "ls-tree <tree>",
	Short: "List the entries of a tree",
	Args:  cobra.ExactArgs(1),
	Run:   runLsTree,
}

func init() {
	lsTreeCmd.Flags().BoolVarP(&lsTreeRecursive, "recursive", "r", false, "recurse into subtrees")
}

func runLsTree(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		log.Fatalf("ls-tree: %v", err)
	}
	defer eng.Close()

	treeKind := objects.KindTree
	h, err := eng.resolver.Find(args[0], &treeKind, true)
	if err != nil {
		log.Fatalf("ls-tree: %v", err)
	}

	if err := printTree(eng, h, "", lsTreeRecursive); err != nil {
		log.Fatalf("ls-tree: %v", err)
	}
}

func printTree(eng *engine, h digest.Hash, prefix string, recurse bool) error {
	obj, err := eng.objects.Read(h)
	if err != nil {
		return err
	}
	tree, ok := obj.(*objects.Tree)
	if !ok {
		return fmt.Errorf("%x is not a tree", h)
	}

	for _, leaf := range tree.Leaves {
		kind, err := objects.PeelKind(leaf.Mode)
		if err != nil {
			return err
		}
		path := prefix + leaf.Path
		fmt.Println(colors.FormatEntry(string(leaf.Mode), string(kind), leaf.Target.String(), path))

		if recurse && kind == objects.KindTree {
			if err := printTree(eng, leaf.Target, path+"/", true); err != nil {
				return err
			}
		}
	}
	return nil
}
