//go:build linux || darwin

package main

import (
	"context"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// listenForKeyboard reads single keys from the terminal until ctx is done or
// a quit key is pressed. Canonical mode and echo are turned off while it runs.
func listenForKeyboard(ctx context.Context, k *keyHandler) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}

	oldState, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return
	}

	// Output processing stays on so log lines keep their carriage returns
	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &newState); err != nil {
		return
	}
	defer unix.IoctlSetTermios(fd, ioctlSetTermios, oldState)

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
