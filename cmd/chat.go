package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/knowbot-ai/knowbot/internal/bot"
	"github.com/knowbot-ai/knowbot/internal/session"
)

// runChat starts the interactive chat (REPL) mode.
func runChat() error {
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

	fmt.Printf("knowbot %s  provider=%s model=%s\n", displayVersion(), cfg.Provider, cfg.Model)
	fmt.Println("Type a question, or /help for commands.")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("you> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil // EOF
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(b, line); quit {
				return nil
			}
			continue
		}

		answer, err := b.SubmitTurn(ctx, line)
		switch {
		case errors.Is(err, bot.ErrBusy):
			fmt.Println("still working on the previous question")
			continue
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		fmt.Printf("\nbot> %s\n\n", answer)
	}
}

// handleCommand dispatches a slash command. Returns true to exit the REPL.
func handleCommand(b *bot.Bot, line string) bool {
	switch line {
	case "/quit", "/exit", "/q":
		return true
	case "/reset", "/clear":
		b.Reset()
		fmt.Println("conversation cleared")
	case "/history":
		printTranscript(b.Transcript())
	case "/help":
		fmt.Println("  /reset    clear the conversation")
		fmt.Println("  /history  show the transcript so far")
		fmt.Println("  /quit     exit")
	default:
		fmt.Printf("unknown command %s (try /help)\n", line)
	}
	return false
}

func printTranscript(turns []session.Turn) {
	if len(turns) == 0 {
		fmt.Println("(empty)")
		return
	}
	for _, t := range turns {
		label := string(t.Role)
		if t.Role == session.RoleTool {
			label = "lookup"
		}
		fmt.Printf("[%s] %s\n", label, t.Text)
	}
}
