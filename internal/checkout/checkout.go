// Package checkout implements the tree materializer (C9): writing a tree's
// leaves onto the filesystem. Peeling a name down to a tree digest is done
// by the caller through the name resolver.
//
// Grounded on the teacher's workspace.Materializer.ApplyChangesToWorkspace
// (internal/workspace/workspace.go), which walked a diff and wrote blob
// content with os.MkdirAll/os.WriteFile under the target mode; generalized
// here to walk a whole tree fresh (no prior workspace state) and to handle
// symlink and submodule leaves per spec §4.9.
package checkout

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/javanhut/minit/internal/digest"
	"github.com/javanhut/minit/internal/objects"
	"github.com/javanhut/minit/internal/store"
)

// ErrTargetNotEmpty is returned when target_dir exists and is not empty.
var ErrTargetNotEmpty = errors.New("checkout target is not an empty directory")

// Checkout materializes the tree reachable from treeHash into targetDir.
// Callers are expected to have already peeled a commit/tag digest down to a
// tree digest via the name resolver.
func Checkout(objs *store.ObjectStore, treeHash digest.Hash, targetDir string) error {
	if err := prepareTarget(targetDir); err != nil {
		return err
	}
	return writeTree(objs, treeHash, targetDir)
}

func prepareTarget(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %q is not a directory", ErrTargetNotEmpty, dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %q", ErrTargetNotEmpty, dir)
	}
	return nil
}

func writeTree(objs *store.ObjectStore, treeHash digest.Hash, dir string) error {
	obj, err := objs.Read(treeHash)
	if err != nil {
		return err
	}
	tree, ok := obj.(*objects.Tree)
	if !ok {
		return fmt.Errorf("checkout: %x is not a tree", treeHash)
	}

	for _, leaf := range tree.Leaves {
		target := filepath.Join(dir, leaf.Path)
		kind, err := objects.PeelKind(leaf.Mode)
		if err != nil {
			return err
		}

		switch kind {
		case objects.KindTree:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			if err := writeTree(objs, leaf.Target, target); err != nil {
				return err
			}
		case objects.KindCommit:
			// Submodule: directory created, contents never populated.
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case objects.KindBlob:
			if err := writeBlob(objs, leaf, target); err != nil {
				return err
			}
		default:
			return fmt.Errorf("checkout: leaf %q has unsupported kind %q", leaf.Path, kind)
		}
	}
	return nil
}

func writeBlob(objs *store.ObjectStore, leaf objects.Leaf, target string) error {
	obj, err := objs.Read(leaf.Target)
	if err != nil {
		return err
	}
	blob, ok := obj.(*objects.Blob)
	if !ok {
		return fmt.Errorf("checkout: %q does not reference a blob", leaf.Path)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	if leaf.Mode == objects.ModeSymlink {
		return os.Symlink(string(blob.Content), target)
	}

	mode := os.FileMode(0o644)
	if leaf.Mode == objects.ModeExecutable {
		mode = 0o755
	}
	return os.WriteFile(target, blob.Content, mode)
}
