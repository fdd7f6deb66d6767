// Package locate implements the FileLocator walker and the Locator unit: the
// producer side of the scan pipeline, emitting filtered file paths onto the
// bounded work queue per spec §4.D/§4.E.
package locate

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Spl0itable/wordfence-cli/pkg/filter"
	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// FileLocator walks one root path, emitting paths of regular files that pass
// the FileFilter to emit. If root is itself a regular file it is emitted
// directly without filtering, matching the teacher's "search a list of
// individual files" behavior.
type FileLocator struct {
	filter         *filter.FileFilter
	visited        *visitedSet
	followSymlinks bool
	ctx            context.Context
}

// NewFileLocator creates a FileLocator sharing filter and the visited-inode
// set of the owning Locator unit, so loop detection accumulates across every
// root path handled by that unit. followSymlinks gates whether symlinked
// files and directories encountered during traversal are followed at all,
// mirroring the teacher's enum.Config.FollowSymlinks: off by default. ctx
// lets emit unblock the walk promptly when the owning unit is cancelled; a
// nil ctx behaves as context.Background().
func NewFileLocator(fileFilter *filter.FileFilter, visited *visitedSet, followSymlinks bool, ctx context.Context) *FileLocator {
	if ctx == nil {
		ctx = context.Background()
	}
	return &FileLocator{filter: fileFilter, visited: visited, followSymlinks: followSymlinks, ctx: ctx}
}

// Locate walks root, calling emit(path) for every eligible regular file.
// emit returns an error to abort the walk early without it being treated as
// a locator failure (e.g. ctx cancellation); any other emit or directory
// read failure aborts the whole walk and, for directory reads, is returned
// as a *types.LocatorFatal. The root path is canonicalised with
// filepath.EvalSymlinks before the walk begins, matching os.path.realpath
// in the original implementation.
func (l *FileLocator) Locate(root string, emit func(path string) error) error {
	if err := l.ctx.Err(); err != nil {
		return err
	}

	real, err := filepath.EvalSymlinks(root)
	if err != nil {
		real = root
	}

	info, err := os.Lstat(real)
	if err != nil {
		return &types.LocatorFatal{Path: real, Err: err}
	}

	if !info.IsDir() {
		return emit(real)
	}

	return l.searchDirectory(real, emit)
}

func (l *FileLocator) searchDirectory(dir string, emit func(path string) error) error {
	if err := l.ctx.Err(); err != nil {
		return err
	}

	if !l.visited.enter(dir) {
		// Already visited this directory by device+inode: a symlink loop.
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &types.LocatorFatal{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if err := l.ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			// A single vanished entry (e.g. a race with deletion) does not
			// abort the walk; skip it.
			continue
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !l.followSymlinks {
				continue
			}
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				continue
			}
			targetInfo, err := os.Stat(target)
			if err != nil {
				continue
			}
			if targetInfo.IsDir() {
				if err := l.searchDirectory(target, emit); err != nil {
					return err
				}
				continue
			}
			if targetInfo.Mode().IsRegular() && l.filter.Filter(path) {
				if err := emit(path); err != nil {
					return err
				}
			}
			continue
		}

		if info.IsDir() {
			if err := l.searchDirectory(path, emit); err != nil {
				return err
			}
			continue
		}

		if info.Mode().IsRegular() && l.filter.Filter(path) {
			if err := emit(path); err != nil {
				return err
			}
		}
	}

	return nil
}
