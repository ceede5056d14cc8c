package transport

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// execTransport shells out to a system download tool. The tool's own
// proxy, CA, and netrc configuration applies, which is the reason to pick
// it over the builtin transport.
type execTransport struct {
	tool string
	path string

	fetchArgs      func(dest, url string) []string
	effectiveArgs  func(url string) []string
	parseEffective func(stdout, stderr string) (string, error)
}

func newCurl() *execTransport {
	return &execTransport{
		tool: "curl",
		fetchArgs: func(dest, url string) []string {
			return []string{"-fsSL", "-o", dest, url}
		},
		effectiveArgs: func(url string) []string {
			// HEAD request, redirects followed, final URL on stdout.
			return []string{"-fsSLI", "-o", "/dev/null", "-w", "%{url_effective}", url}
		},
		parseEffective: func(stdout, _ string) (string, error) {
			final := strings.TrimSpace(stdout)
			if final == "" {
				return "", fmt.Errorf("curl reported no effective URL")
			}
			return final, nil
		},
	}
}

func newWget() *execTransport {
	return &execTransport{
		tool: "wget",
		fetchArgs: func(dest, url string) []string {
			return []string{"-qO", dest, url}
		},
		effectiveArgs: func(url string) []string {
			// Server responses go to stderr; the last Location header
			// is the redirect target.
			return []string{"-SqO", "/dev/null", url}
		},
		parseEffective: func(_, stderr string) (string, error) {
			return lastLocation(stderr)
		},
	}
}

// Name implements Transport.
func (e *execTransport) Name() string { return e.tool }

// Fetch implements Transport by running the tool once. Any non-zero exit
// is a transfer failure.
func (e *execTransport) Fetch(ctx context.Context, dest, url string) error {
	cmd := exec.CommandContext(ctx, e.path, e.fetchArgs(dest, url)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s download %s: %w (%s)", e.tool, url, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// EffectiveURL implements Transport.
func (e *execTransport) EffectiveURL(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, e.path, e.effectiveArgs(url)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s resolve %s: %w (%s)", e.tool, url, err, strings.TrimSpace(stderr.String()))
	}
	return e.parseEffective(stdout.String(), stderr.String())
}

// lastLocation extracts the final "Location:" header from wget's server
// response output.
func lastLocation(serverOutput string) (string, error) {
	const prefix = "location:"
	location := ""
	for _, line := range strings.Split(serverOutput, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
			location = strings.TrimSpace(line[len(prefix):])
		}
	}
	if location == "" {
		return "", fmt.Errorf("wget reported no Location header")
	}
	return location, nil
}
