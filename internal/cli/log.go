package cli

import (
	"fmt"
	"log"

	"github.com/javanhut/minit/internal/colors"
	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log <rev>",
	Short: "Show one commit",
	Args:  cobra.ExactArgs(1),
	Run:   runLog,
}

func runLog(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	defer eng.Close()

	commitKind := objects.KindCommit
	h, err := eng.resolver.Find(args[0], &commitKind, true)
	if err != nil {
		log.Fatalf("log: %v", err)
	}

	obj, err := eng.objects.Read(h)
	if err != nil {
		log.Fatalf("log: %v", err)
	}
	commit, ok := obj.(*objects.Commit)
	if !ok {
		log.Fatalf("log: %s is not a commit", h)
	}

	fmt.Printf("%s %s\n", colors.Commit("commit"), h.String())
	for _, parent := range commit.Headers.Get(objects.HeaderParent) {
		fmt.Printf("parent %s\n", parent)
	}
	if author, ok := commit.Headers.GetOne(objects.HeaderAuthor); ok {
		fmt.Printf("Author: %s\n", author)
	}
	if committer, ok := commit.Headers.GetOne(objects.HeaderCommitter); ok {
		fmt.Printf("Committer: %s\n", committer)
	}
	fmt.Println()
	if msg, ok := commit.Headers.Message(); ok {
		fmt.Println(msg)
	}
}
