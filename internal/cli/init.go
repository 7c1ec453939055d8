package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/javanhut/minit/internal/colors"
	"github.com/javanhut/minit/internal/repo"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create an empty minit repository",
	Args:  cobra.MaximumNArgs(1),
	Run:   runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	r, err := repo.Create(target)
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	fmt.Fprintf(os.Stdout, "%s %s\n", colors.SuccessText("Initialized empty minit repository in"), r.MetaDir)
}
