package main

import (
	"os"

	"github.com/getclawkit/clawkit/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the machine running your agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := doctor.DefaultEnv()
			if err != nil {
				return clawError{err, "Could not inspect the environment."}
			}
			env.AgentURL = config.AgentURL
			if err := doctor.Diagnose(cmd.Context(), os.Stdout, env, doctor.Checks()); err != nil {
				return clawError{err, "The diagnosis could not finish."}
			}
			return nil
		},
	}
}
