package panel

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shirou/gopsutil/v3/host"
)

// HostnameFunc resolves the diagnostic hostname shown above the footer.
type HostnameFunc func() (string, error)

var errNoHostname = errors.New("empty hostname")

// SystemHostname asks the operating system for the host name.
func SystemHostname() (string, error) {
	info, err := host.Info()
	if err != nil {
		return "", fmt.Errorf("host info: %w", err)
	}
	if info.Hostname == "" {
		return "", errNoHostname
	}
	return info.Hostname, nil
}

// CachedHostname resolves fn once. A failure is logged once and the
// hostname line is then omitted for the rest of the process.
func CachedHostname(fn HostnameFunc) HostnameFunc {
	return sync.OnceValues(func() (string, error) {
		name, err := fn()
		if err != nil {
			log.Printf("panel: hostname lookup failed, hiding diagnostic line: %v", err)
		}
		return name, err
	})
}
