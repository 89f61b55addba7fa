package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/uuship/uuship/internal/config"
	"github.com/uuship/uuship/internal/jobstore"
)

func statCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Report queued job status (submit-stat)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := jobstore.Open(cfg.JobStore.Path)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}
			defer store.Close()

			hosts := []string{host}
			if host == "" {
				hosts = hosts[:0]
				for _, h := range cfg.Hosts {
					hosts = append(hosts, h.Name)
				}
			}

			for _, h := range hosts {
				jobs, err := store.JobsForHost(h)
				if err != nil {
					return fmt.Errorf("list jobs for %s: %w", h, err)
				}
				printJobs(h, jobs)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "restrict to one peer (default: all configured hosts)")
	return cmd
}

func printJobs(host string, jobs []jobstore.JobRecord) {
	for _, j := range jobs {
		t := time.Unix(j.SubmittedAt, 0).UTC().Format("2006-01-02 15:04:05")
		fmt.Printf("%s %s %s %s %s\n", host, j.JobID, j.Grade, j.User, t)
	}
}
