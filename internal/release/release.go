// Package release resolves the concrete version to install and constructs
// the download URLs for it.
//
// Resolution precedence: an explicit commit pins a CI build served from the
// commit-scoped storage endpoint; an explicit version tag is used verbatim;
// otherwise the channel endpoint is queried and the version is read from
// the final path segment of the redirect it answers with.
package release

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/acornlabs/acorn-installer/internal/config"
	"github.com/acornlabs/acorn-installer/internal/platform"
	"github.com/acornlabs/acorn-installer/internal/transport"
)

// Resolution is the outcome of version resolution for one run. It is
// computed once and templates every subsequent download URL.
type Resolution struct {
	// Version is the release tag, or the commit identifier for
	// commit-scoped installs.
	Version string

	// CommitScoped selects the storage endpoint over the release
	// endpoint for all URLs.
	CommitScoped bool
}

// Resolve determines the version to install. Only the channel-lookup path
// touches the network. The shape of a resolved tag is deliberately not
// validated; a bad tag surfaces as a failed download.
func Resolve(ctx context.Context, cfg *config.Config, t transport.Transport) (Resolution, error) {
	if cfg.Commit != "" {
		return Resolution{Version: cfg.Commit, CommitScoped: true}, nil
	}
	if cfg.Version != "" {
		return Resolution{Version: cfg.Version}, nil
	}

	version, err := resolveChannel(ctx, cfg, t)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Version: version}, nil
}

// resolveChannel queries {ChannelURL}/{Channel} and extracts the version
// tag from the redirect target's final path segment.
func resolveChannel(ctx context.Context, cfg *config.Config, t transport.Transport) (string, error) {
	channelURL := strings.TrimSuffix(cfg.ChannelURL, "/") + "/" + cfg.Channel

	effective, err := t.EffectiveURL(ctx, channelURL)
	if err != nil {
		return "", fmt.Errorf("resolve channel %q: %w", cfg.Channel, err)
	}

	parsed, err := url.Parse(effective)
	if err != nil {
		return "", fmt.Errorf("resolve channel %q: bad redirect target %q: %w", cfg.Channel, effective, err)
	}

	version := path.Base(parsed.Path)
	if version == "" || version == "." || version == "/" || version == cfg.Channel {
		// No redirect happened, or it went nowhere useful.
		return "", fmt.Errorf("channel %q did not resolve to a version (got %q)", cfg.Channel, effective)
	}
	return version, nil
}

// baseURL returns the directory URL all artifacts for this resolution live
// under.
func (r Resolution) baseURL(cfg *config.Config) string {
	if r.CommitScoped {
		return strings.TrimSuffix(cfg.StorageURL, "/") + "/" + r.Version
	}
	return strings.TrimSuffix(cfg.ReleaseURL, "/") + "/" + r.Version
}

// ManifestURL returns the URL of the checksum manifest for the target.
func (r Resolution) ManifestURL(cfg *config.Config, target *platform.Target) string {
	return r.baseURL(cfg) + "/" + target.ManifestName()
}

// ArtifactURL returns the URL of the binary or archive artifact for the
// target.
func (r Resolution) ArtifactURL(cfg *config.Config, target *platform.Target) string {
	return r.baseURL(cfg) + "/" + target.ArtifactName(r.Version)
}

// SignatureURL returns the URL of the artifact's detached GPG signature.
func (r Resolution) SignatureURL(cfg *config.Config, target *platform.Target) string {
	return r.ArtifactURL(cfg, target) + ".sig"
}
