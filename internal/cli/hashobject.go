package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var (
	hashObjectWrite bool
	hashObjectKind  string
)

var hashObjectCmd = &cobra.Command{
	Use:   "hash-object <file>",
	Short: "Compute an object's digest, optionally writing it to the store",
	Args:  cobra.ExactArgs(1),
	Run:   runHashObject,
}

func init() {
	hashObjectCmd.Flags().BoolVarP(&hashObjectWrite, "write", "w", false, "write the object into the store")
	hashObjectCmd.Flags().StringVarP(&hashObjectKind, "type", "t", "blob", "object kind: blob, tree, commit, tag")
}

func runHashObject(cmd *cobra.Command, args []string) {
	kind := objects.Kind(hashObjectKind)

	content, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("hash-object: %v", err)
	}

	obj, err := objects.Parse(kind, content)
	if err != nil {
		log.Fatalf("hash-object: %v", err)
	}

	if hashObjectWrite {
		eng, err := openEngine()
		if err != nil {
			log.Fatalf("hash-object: %v", err)
		}
		defer eng.Close()
		h, err := eng.objects.Write(obj)
		if err != nil {
			log.Fatalf("hash-object: %v", err)
		}
		eng.invalidateAbbrevsForWrite(h)
		fmt.Println(h.String())
		return
	}

	h, _, err := objects.Write(obj)
	if err != nil {
		log.Fatalf("hash-object: %v", err)
	}
	fmt.Println(h.String())
}
