//go:build !linux && !darwin && !windows

package main

import "context"

func listenForKeyboard(context.Context, *keyHandler) {}
