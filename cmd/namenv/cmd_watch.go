package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

const debounceInterval = 300 * time.Millisecond

var watchLog = commonlog.GetLogger("namenv.watch")

func newWatchCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <type>...",
		Short: "Re-resolve type names whenever sources or output folders change",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := g.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return s.watch(ctx, args)
		},
	}

	return cmd
}

// watchRoots returns the source folders and their output folders.
func (s *session) watchRoots() []string {
	var roots []string
	for _, src := range s.env.SourceLocations() {
		roots = append(roots, src.Path(), src.Output().Path())
	}
	return roots
}

func (s *session) watch(ctx context.Context, names []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range s.watchRoots() {
		if err := addWatchDirs(watcher, root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	if err := s.find(names, ""); err != nil {
		return err
	}

	rebuild := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevantChange(event) {
				continue
			}
			watchLog.Debugf("change: %s", event)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}

		case <-rebuild:
			s.problems.Reset()
			s.env.SetNames(nil, nil)
			s.out.line("--- %s", time.Now().Format(time.TimeOnly))
			if err := s.find(names, ""); err != nil {
				return err
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			watchLog.Errorf("watcher error: %s", err)
		}
	}
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".class", ".java", ".groovy", "":
		return true
	}
	return false
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := addWatchDirs(watcher, path); err != nil {
		watchLog.Warningf("cannot watch %s: %s", path, err)
	}
}
