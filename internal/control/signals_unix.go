//go:build unix

package control

import (
	"os"
	"syscall"
)

var signalCommands = map[os.Signal]Command{
	syscall.SIGUSR1: PlayNow,
	syscall.SIGUSR2: Toggle,
	syscall.SIGHUP:  Reload,
}
