package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joshuadwray/audition-scoring/internal/logger"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

// keyHandler applies single-key console commands to the running server
type keyHandler struct {
	out  io.Writer
	log  logger.Logger
	quit func()
}

// handle runs the command bound to key and reports whether it asked to quit
func (k *keyHandler) handle(key byte) bool {
	switch strings.ToLower(string(key)) {
	case "h":
		if k.log.IsHTTPLoggingEnabled() {
			k.log.DisableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			k.log.EnableHTTPLogging()
			fmt.Fprintf(k.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case "l":
		next := nextLogLevel(k.log.GetLevel().String())
		k.log.SetLevel(logger.ParseLevel(next))
		fmt.Fprintf(k.out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
	case "q", "\x03":
		fmt.Fprintf(k.out, "%sShutting down server...%s\n", yellow, reset)
		k.quit()
		return true
	case "?":
		printKeyboardHelp(k.out)
	}
	return false
}

// readKeys delivers bytes from r on a channel that closes when r fails.
// The reading goroutine outlives the listener; stdin reads cannot be cancelled.
func readKeys(r io.Reader) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if err != nil {
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()
	return keys
}

// nextLogLevel cycles debug -> info -> warn -> error -> debug
func nextLogLevel(current string) string {
	switch current {
	case "DEBUG":
		return "info"
	case "INFO":
		return "warn"
	case "WARN":
		return "error"
	case "ERROR":
		return "debug"
	default:
		return "info"
	}
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp(out io.Writer) {
	fmt.Fprintf(out, "\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(out, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(out, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(out, "    %sq%s      - Quit server\n", cyan, reset)
	fmt.Fprintf(out, "    %s?%s      - Show this help\n\n", cyan, reset)
}
