package cli

import (
	"fmt"
	"log"

	"github.com/javanhut/minit/internal/checkout"
	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <rev> <empty-dir>",
	Short: "Materialize a tree or commit into a directory",
	Args:  cobra.ExactArgs(2),
	Run:   runCheckout,
}

func runCheckout(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		log.Fatalf("checkout: %v", err)
	}
	defer eng.Close()

	treeKind := objects.KindTree
	h, err := eng.resolver.Find(args[0], &treeKind, true)
	if err != nil {
		log.Fatalf("checkout: %v", err)
	}

	if err := checkout.Checkout(eng.objects, h, args[1]); err != nil {
		log.Fatalf("checkout: %v", err)
	}

	fmt.Printf("checked out %s into %s\n", h.String(), args[1])
}
