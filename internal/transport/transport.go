// Package transport abstracts the download mechanism behind a single
// interface. A builtin net/http implementation is the default; curl and
// wget implementations shell out to the system tools for environments
// whose proxy or CA configuration lives there. The implementation is
// selected once at startup and bound for the remainder of the run.
//
// Fetch never retries: a failed transfer is a fatal, user-visible error
// and retry policy belongs to whoever re-invokes the installer.
package transport

import (
	"context"
	"errors"
	"os/exec"
)

// Transport downloads URLs to local files.
type Transport interface {
	// Name identifies the transport in log output.
	Name() string

	// Fetch retrieves url into dest, following redirects. It writes
	// exactly one file and returns an error on any transfer failure
	// (network error, non-2xx status, TLS failure).
	Fetch(ctx context.Context, dest, url string) error

	// EffectiveURL follows redirects from url and returns the final
	// URL reached, without keeping the body. It is how channel
	// resolution discovers the version a channel points at.
	EffectiveURL(ctx context.Context, url string) (string, error)
}

// ErrNoTransport is returned by Select when probing finds no usable tool.
var ErrNoTransport = errors.New("no usable download transport found (need curl or wget)")

// Select binds the transport for this run.
//
//	""/"builtin"  the builtin HTTP client
//	"curl"        the curl tool; error if not installed
//	"wget"        the wget tool; error if not installed
//	"probe"       first available of curl, wget; ErrNoTransport if neither
func Select(name string) (Transport, error) {
	switch name {
	case "", "builtin":
		return NewHTTP(), nil
	case "curl":
		return lookupTool(newCurl())
	case "wget":
		return lookupTool(newWget())
	case "probe":
		for _, tool := range []*execTransport{newCurl(), newWget()} {
			if t, err := lookupTool(tool); err == nil {
				return t, nil
			}
		}
		return nil, ErrNoTransport
	default:
		return nil, errors.New("unknown transport: " + name)
	}
}

// lookupTool resolves the tool's absolute path, probing availability.
func lookupTool(t *execTransport) (Transport, error) {
	path, err := exec.LookPath(t.tool)
	if err != nil {
		return nil, errors.New("transport tool not available: " + t.tool)
	}
	t.path = path
	return t, nil
}
