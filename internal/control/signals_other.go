//go:build !unix

package control

import "os"

var signalCommands = map[os.Signal]Command{}
