package cmd

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/uuship/uuship/internal/config"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch configured spool directories for newly published command files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}

			w, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer w.Close()

			for _, h := range cfg.Hosts {
				if err := w.Add(h.SpoolDir); err != nil {
					slog.Warn("cannot watch spool directory", "host", h.Name, "dir", h.SpoolDir, "error", err)
					continue
				}
				slog.Info("watching spool directory", "host", h.Name, "dir", h.SpoolDir)
			}

			for {
				select {
				case ev, ok := <-w.Events:
					if !ok {
						return nil
					}
					base := filepath.Base(ev.Name)
					published := strings.HasPrefix(base, "C.") || strings.HasPrefix(base, "D.") || strings.HasPrefix(base, "X.")
					if published && (ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
						slog.Info("spool entry published", "path", ev.Name)
					}
				case err, ok := <-w.Errors:
					if !ok {
						return nil
					}
					slog.Error("watch error", "error", err)
				}
			}
		},
	}
}
