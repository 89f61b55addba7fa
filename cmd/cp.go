package cmd

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/uuship/uuship/internal/submit"
)

func copyOutCmd() *cobra.Command {
	var gradeFlag string
	var copyFlag bool
	var noCopyFlag bool
	var jobIDFlag bool
	var notify string

	cmd := &cobra.Command{
		Use:   "cp <local> <peer>!<path>",
		Short: "Queue a local file for delivery to a peer (submit-copy-out)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, path, err := peerPath(args[1])
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

			results, err := p.CopyOut(context.Background(), submit.CopyOutOptions{
				Local:       args[0],
				PeerHost:    host,
				PeerPath:    path,
				User:        submitterIdentity(),
				Grade:       g,
				CopyToSpool: copyFlag && !noCopyFlag,
				Notify:      notify,
			})
			if err != nil {
				return err
			}

			if jobIDFlag {
				for _, res := range results {
					fmt.Fprintln(os.Stdout, res.JobID)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gradeFlag, "grade", "", "job grade (single character; default host grade)")
	cmd.Flags().BoolVarP(&copyFlag, "copy", "C", false, "copy the file into the spool before queuing")
	cmd.Flags().BoolVarP(&noCopyFlag, "no-copy", "c", false, "read the file at send time instead of copying it")
	cmd.Flags().BoolVarP(&jobIDFlag, "jobid", "j", false, "print the minted job id on stdout")
	cmd.Flags().StringVar(&notify, "notify", "", "mail address to notify on completion")
	return cmd
}

// submitterIdentity returns the process's real user name, the default
// submitter identity spec.md §6 specifies when no explicit user is given.
func submitterIdentity() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}
