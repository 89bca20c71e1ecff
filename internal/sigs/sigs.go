// Package sigs is the process signal plumbing the listener uses to trigger
// graceful shutdown, adapted from packetd-packetd/internal/sigs. Only
// Terminate is kept; Reload and SelfReload are dropped since polyservd has
// no config-reload feature.
package sigs

import (
	"os"
	"os/signal"
	"syscall"
)

// Terminate returns a channel that receives once on SIGINT or SIGTERM.
func Terminate() chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
