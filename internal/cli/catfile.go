package cli

import (
	"log"
	"os"

	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var catFileCmd = &cobra.Command{
	Use:   "cat-file <kind> <name>",
	Short: "Print the serialized payload of an object",
	Args:  cobra.ExactArgs(2),
	Run:   runCatFile,
}

func runCatFile(cmd *cobra.Command, args []string) {
	wantKind := objects.Kind(args[0])
	name := args[1]

	eng, err := openEngine()
	if err != nil {
		log.Fatalf("cat-file: %v", err)
	}
	defer eng.Close()

	h, err := eng.resolver.Find(name, &wantKind, true)
	if err != nil {
		log.Fatalf("cat-file: %v", err)
	}

	obj, err := eng.objects.Read(h)
	if err != nil {
		log.Fatalf("cat-file: %v", err)
	}

	payload, err := objects.Serialize(obj)
	if err != nil {
		log.Fatalf("cat-file: %v", err)
	}
	os.Stdout.Write(payload)
}
