package cli

import (
	"fmt"
	"log"

	"github.com/javanhut/minit/internal/kvlm"
	"github.com/javanhut/minit/internal/objects"
	"github.com/spf13/cobra"
)

var tagAnnotate bool

var tagCmd = &cobra.Command{
	Use:   "tag <name> [target]",
	Short: "Create a tag, or list tags if no name is given",
	Args:  cobra.RangeArgs(0, 2),
	Run:   runTag,
}

func init() {
	tagCmd.Flags().BoolVarP(&tagAnnotate, "annotate", "a", false, "create an annotated tag object instead of a plain ref")
}

func runTag(cmd *cobra.Command, args []string) {
	eng, err := openEngine()
	if err != nil {
		log.Fatalf("tag: %v", err)
	}
	defer eng.Close()

	if len(args) == 0 {
		entries, err := eng.refs.List("refs/tags")
		if err != nil {
			log.Fatalf("tag: %v", err)
		}
		for _, e := range entries {
			fmt.Println(e.Path[len("refs/tags/"):])
		}
		return
	}

	name := args[0]
	target := "HEAD"
	if len(args) == 2 {
		target = args[1]
	}

	h, err := eng.resolver.Find(target, nil, false)
	if err != nil {
		log.Fatalf("tag: %v", err)
	}

	if !tagAnnotate {
		if err := eng.refs.WriteDigest("refs/tags/"+name, h); err != nil {
			log.Fatalf("tag: %v", err)
		}
		eng.invalidateRef("refs/tags/" + name)
		return
	}

	targetObj, err := eng.objects.Read(h)
	if err != nil {
		log.Fatalf("tag: %v", err)
	}

	headers := kvlm.New()
	_ = headers.Set(objects.HeaderObject, h.String())
	_ = headers.Set(objects.HeaderType, string(targetObj.Kind()))
	_ = headers.Set(objects.HeaderTag, name)
	headers.SetMessage(fmt.Sprintf("tag %s\n", name))

	tagHash, err := eng.objects.Write(&objects.Tag{Headers: headers})
	if err != nil {
		log.Fatalf("tag: %v", err)
	}
	eng.invalidateAbbrevsForWrite(tagHash)

	if err := eng.refs.WriteDigest("refs/tags/"+name, tagHash); err != nil {
		log.Fatalf("tag: %v", err)
	}
	eng.invalidateRef("refs/tags/" + name)
}
