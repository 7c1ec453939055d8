package cli

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var showRefCmd = &cobra.Command{
	Use:   "show-ref",
	Short: "List every ref and the digest it resolves to",
	Args:  cobra.NoArgs,
	Run:   runShowRef,
}

func runShowRef(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		log.Fatalf("show-ref: %v", err)
	}
	defer eng.Close()

	for _, namespace := range []string{"refs/heads", "refs/tags", "refs/remotes"} {
		entries, err := eng.refs.List(namespace)
		if err != nil {
			log.Fatalf("show-ref: %v", err)
		}
		for _, e := range entries {
			fmt.Printf("%s %s\n", e.Digest.String(), e.Path)
		}
	}
}
