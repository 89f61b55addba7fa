package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/uuship/uuship/internal/submit"
)

func execCmd() *cobra.Command {
	var gradeFlag string
	var noAck bool
	var errorAck bool
	var notify string
	var status string
	var stdinReturn bool
	var readStdin bool
	var jobIDFlag bool
	var noAutoStart bool

	cmd := &cobra.Command{
		Use:   "x <peer>!<cmd> [args...]",
		Short: "Queue a command for execution on a peer (submit-exec)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, remoteCmd, err := peerPath(args[0])
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

			opts := submit.ExecOptions{
				PeerHost:      host,
				Cmd:           remoteCmd,
				Args:          args[1:],
				User:          submitterIdentity(),
				Grade:         g,
				StatusFile:    status,
				NotifyAddress: notify,
				SuppressOK:    noAck,
				ErrorAckOnly:  errorAck,
				StdinReturn:   stdinReturn,
			}
			if readStdin {
				opts.Stdin = os.Stdin
			}

			res, err := p.Exec(context.Background(), opts)
			if err != nil {
				return err
			}

			_ = noAutoStart // this core never auto-starts a transport daemon; flag kept for CLI compatibility

			if jobIDFlag {
				fmt.Fprintln(os.Stdout, res.JobID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gradeFlag, "grade", "", "job grade (single character; default host grade)")
	cmd.Flags().BoolVar(&noAck, "no-ack", false, "suppress mail on successful completion")
	cmd.Flags().BoolVar(&errorAck, "error-ack", false, "mail requestor only on failure")
	cmd.Flags().StringVar(&notify, "notify", "", "mail address to notify on completion")
	cmd.Flags().StringVar(&status, "status", "", "file to write completion status into")
	cmd.Flags().BoolVar(&stdinReturn, "stdin-return", false, "return staged stdin to the requestor on failure")
	cmd.Flags().BoolVarP(&readStdin, "read-stdin", "", false, "stage the process's standard input as the command's stdin")
	cmd.Flags().BoolVarP(&jobIDFlag, "jobid", "j", false, "print the minted job id on stdout")
	cmd.Flags().BoolVarP(&noAutoStart, "no-auto-start", "r", false, "do not auto-start the transport daemon")
	return cmd
}
