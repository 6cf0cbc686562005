//go:build windows

package main

import (
	"context"
	"os"

	"golang.org/x/term"
)

// listenForKeyboard reads keys from the console. Input is line buffered on
// Windows, so commands take effect after Enter.
func listenForKeyboard(ctx context.Context, k *keyHandler) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return
	}

	keys := readKeys(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok || k.handle(key) {
				return
			}
		}
	}
}
