// Command scanner turns a keyboard-wedge card reader attached to this terminal
// into attendance scans against the API.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"cardattend/internal/logging"
	"cardattend/internal/scan"
)

const (
	ctrlC = 0x03
	ctrlD = 0x04
)

func main() {
	apiURL := flag.String("api", envOr("CARDATTEND_API", "http://localhost:8081"), "API base URL")
	token := flag.String("token", os.Getenv("CARDATTEND_TOKEN"), "access token of the signed-in teacher")
	flag.Parse()

	logger := logging.New(os.Stderr, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *token == "" {
		logger.Error(ctx, "an access token is required, pass -token or set CARDATTEND_TOKEN")
		os.Exit(2)
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			logger.Error(ctx, "enable raw mode", "error", err)
			os.Exit(1)
		}
		defer func() { _ = term.Restore(fd, state) }()
	}

	client := newClient(*apiURL, *token)
	fmt.Fprint(os.Stdout, "scanning mode on, present a card (Ctrl-C to quit)\r\n")
	err := run(ctx, os.Stdin, time.Now, func(tok string) {
		n, err := client.scan(ctx, tok)
		if err != nil {
			logger.Warn(ctx, "scan not sent", "error", err)
			fmt.Fprintf(os.Stdout, "[error] %v\r\n", err)
			return
		}
		fmt.Fprintf(os.Stdout, "[%s] %s\r\n", n.Level, n.Message)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "scanner stopped", "error", err)
	}
}

// run reads keystrokes from in until EOF, Ctrl-C, Ctrl-D or ctx ends, and
// calls emit for every completed token.
func run(ctx context.Context, in io.Reader, now func() time.Time, emit func(string)) error {
	tok := scan.NewTokenizer()
	tok.Enable()
	defer tok.Disable()

	r := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ch, _, err := r.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ch == ctrlC || ch == ctrlD {
			return nil
		}
		if token, ok := tok.Feed(scan.InputEvent{Key: keyName(ch), At: now().UnixMilli()}); ok {
			emit(token)
		}
	}
}

// keyName maps a raw terminal rune to the key name the tokenizer expects.
func keyName(ch rune) string {
	switch ch {
	case '\r', '\n':
		return "Enter"
	case '\t':
		return "Tab"
	case 0x1b:
		return "Escape"
	case 0x7f, 0x08:
		return "Backspace"
	}
	return string(ch)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
