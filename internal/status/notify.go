package status

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier delivers service-manager notifications.
type Notifier interface {
	Notify(state string) (sent bool, err error)
}

// SdNotifier talks to systemd through $NOTIFY_SOCKET. Outside systemd it
// sends nothing and reports sent=false.
type SdNotifier struct{}

func (SdNotifier) Notify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

// WatchdogInterval returns the interval systemd expects pings at, or zero when
// the watchdog is off for this process.
func WatchdogInterval() (time.Duration, error) {
	return daemon.SdWatchdogEnabled(false)
}
