package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-evaluate a definition file whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireConfig(a, cmd); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx, cmd, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "wait this long after a change before reloading")
	return cmd
}

// watch evaluates the configuration once, then again after every change
// until ctx is done. The parent directory is watched so that editors which
// replace the file on save are followed.
func (a *app) watch(ctx context.Context, cmd *cobra.Command, debounce time.Duration) error {
	path, err := filepath.Abs(a.configPath)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	a.reload(cmd)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			a.logger.Debug("definition changed", slog.String("path", path), slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			a.reload(cmd)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watch error", slog.String("error", err.Error()))
		}
	}
}

// reload evaluates the current file contents. Errors are reported and the
// watch continues, since the next save may fix them.
func (a *app) reload(cmd *cobra.Command) {
	w := cmd.OutOrStdout()

	c, err := a.loadConfig()
	if err == nil {
		var entries []entry
		if entries, err = a.evaluateConfig(c); err == nil {
			if a.output == outputText {
				fmt.Fprintf(w, "# %s\n", time.Now().Format(time.RFC3339))
			}
			err = a.printEntries(w, entries)
		}
	}
	if err != nil {
		a.logger.Error("reload failed", slog.String("path", a.configPath), slog.String("error", err.Error()))
		fmt.Fprintf(w, "error: %v\n", err)
	}
}
