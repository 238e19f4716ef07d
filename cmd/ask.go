package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question non-interactively",
		Example: `  knowbot ask "who is the CEO of Google?"
  knowbot ask what does HTTP 429 mean`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return askOnce(strings.Join(args, " "))
		},
	}
}

// askOnce answers a single question and exits.
func askOnce(question string) error {
	cfg := initConfig()
	log := newLogger(cfg)

	b, err := buildBot(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	answer, err := b.SubmitTurn(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}
