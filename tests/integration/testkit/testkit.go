package testkit

import (
	"fmt"
	"net"
	"testing"

	"github.com/mdshelf/mdshelf/internal/app"
	"github.com/spf13/pflag"
)

// GetFreePort returns a free port from the kernel
func GetFreePort() (int, error) {
	return getFreePortWithAddr("localhost:0")
}

// MustGetFreePort returns a free port or fails the test
func MustGetFreePort(t testing.TB) int {
	t.Helper()
	port, err := GetFreePort()
	if err != nil {
		t.Fatalf("Failed to get free port: %v", err)
	}
	return port
}

func getFreePortWithAddr(addrStr string) (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", addrStr)
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// FlagOptions configures NewTestFlags
type FlagOptions struct {
	Root     string // Shelf root directory
	StateDir string // State directory; required to isolate tests
	Serve    bool   // Enable HTTP serve mode
	Host     string // Defaults to "localhost"
	Port     int    // Uses free port if 0 and Serve is set
	NoWatch  bool   // Disable filesystem watching
}

// NewTestFlags creates a configured pflag.FlagSet for testing
func NewTestFlags(t testing.TB, opts *FlagOptions) *pflag.FlagSet {
	t.Helper()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	app.RegisterFlags(flags)

	if opts == nil {
		opts = &FlagOptions{}
	}

	if opts.Root != "" {
		_ = flags.Set("root", opts.Root)
	}
	if opts.StateDir != "" {
		_ = flags.Set("state-dir", opts.StateDir)
	}
	if opts.Serve {
		_ = flags.Set("serve", "true")

		host := opts.Host
		if host == "" {
			host = "localhost"
		}
		port := opts.Port
		if port == 0 {
			port = MustGetFreePort(t)
		}
		_ = flags.Set("host", host)
		_ = flags.Set("port", fmt.Sprintf("%d", port))
	}
	if opts.NoWatch {
		_ = flags.Set("no-watch", "true")
	}

	return flags
}
