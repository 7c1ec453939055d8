package cli

import (
	"fmt"
	"log"

	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var revParseKind string

var revParseCmd = &cobra.Command{
	Use:   "rev-parse <name>",
	Short: "Resolve a name to a digest",
	Args:  cobra.ExactArgs(1),
	Run:   runRevParse,
}

func init() {
	revParseCmd.Flags().StringVarP(&revParseKind, "type", "t", "", "peel to this object kind (blob, tree, commit, tag)")
}

func runRevParse(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		log.Fatalf("rev-parse: %v", err)
	}
	defer eng.Close()

	var kind *objects.Kind
	if revParseKind != "" {
		k := objects.Kind(revParseKind)
		kind = &k
	}

	h, err := eng.resolver.Find(args[0], kind, true)
	if err != nil {
		log.Fatalf("rev-parse: %v", err)
	}
	fmt.Println(h.String())
}
