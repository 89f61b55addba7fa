package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uuship/uuship/internal/submit"
)

func copyInCmd() *cobra.Command {
	var gradeFlag string
	var jobIDFlag bool

	cmd := &cobra.Command{
		Use:   "fetch <peer>!<path> <local>",
		Short: "Queue a request to fetch a file from a peer (submit-copy-in)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, path, err := peerPath(args[0])
			if err != nil {
				return err
			}

			p, cleanup, err := buildPipeline()
			if err != nil {
				return err
			}
			defer cleanup()

			var g byte
			if gradeFlag != "" {
				g = gradeFlag[0]
			}

			res, err := p.CopyIn(context.Background(), submit.CopyInOptions{
				PeerHost: host,
				PeerPath: path,
				Local:    args[1],
				User:     submitterIdentity(),
				Grade:    g,
			})
			if err != nil {
				return err
			}

			if jobIDFlag {
				fmt.Fprintln(os.Stdout, res.JobID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gradeFlag, "grade", "", "job grade (single character; default host grade)")
	cmd.Flags().BoolVarP(&jobIDFlag, "jobid", "j", false, "print the minted job id on stdout")
	return cmd
}
