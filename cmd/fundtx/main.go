package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/vulpemventures/go-elements-funding/coinselect"
)

const (
	exitFailure        = 1
	exitFunding        = 2
	exitInvalidRequest = 3
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "error loading .env file:", err)
		os.Exit(exitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{ctx: ctx}
	parser, err := newParser(a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	if _, err := parser.Parse(); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			fmt.Println(err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitCode(err))
	}
}

func newParser(a *app) (*flags.Parser, error) {
	parser := flags.NewParser(&a.opts, flags.HelpFlag|flags.PassDoubleDash)

	commands := []struct {
		name, short, long string
		data              interface{}
	}{
		{"sync", "Refresh the coin snapshot",
			"List the node wallet coins and replace the stored snapshot with them.",
			&syncCommand{app: a}},
		{"coins", "Show the coin snapshot",
			"Print the stored coins that are not locked.",
			&coinsCommand{app: a}},
		{"resolve", "Resolve the inputs of a request",
			"Resolve the inputs funding a JSON request and print them together with the unsigned transaction.",
			&resolveCommand{app: a}},
		{"unlock", "Release locked coins",
			"Unlock the given outpoints, or every locked coin with --all.",
			&unlockCommand{app: a}},
	}
	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.data); err != nil {
			return nil, err
		}
	}
	return parser, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, coinselect.ErrFunding):
		return exitFunding
	case errors.Is(err, coinselect.ErrInvalidRequest):
		return exitInvalidRequest
	default:
		return exitFailure
	}
}
