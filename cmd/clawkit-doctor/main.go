// Command clawkit-doctor diagnoses the machine running an OpenClaw agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/getclawkit/clawkit/internal/doctor"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	env, err := doctor.DefaultEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1) //nolint:gocritic
	}
	if err := doctor.Diagnose(ctx, os.Stdout, env, doctor.Checks()); err != nil {
		cancel()
		os.Exit(1)
	}
}
