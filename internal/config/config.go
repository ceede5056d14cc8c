// Package config builds the installer's configuration from the process
// environment. The Config is constructed exactly once at startup and treated
// as immutable afterwards; no other package reads environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	log "github.com/sirupsen/logrus"
)

// BinaryName is the single binary this installer manages.
const BinaryName = "acorn"

// Default endpoints and channel. All of them can be overridden through the
// environment (for mirrors and private release hosts).
const (
	DefaultChannelURL = "https://update.acornlabs.io/v1-release/channels"
	DefaultChannel    = "stable"
	DefaultReleaseURL = "https://github.com/acornlabs/acorn/releases/download"
	DefaultStorageURL = "https://storage.acornlabs.io/acorn-ci-builds"
)

// Install directory candidates probed when no explicit override is given.
const (
	primaryBinDir  = "/usr/local/bin"
	fallbackBinDir = "/opt/bin"
)

// SymlinkPolicy governs creation of secondary links next to the binary.
type SymlinkPolicy string

const (
	// SymlinkIfMissing creates a link only when the path does not exist yet.
	SymlinkIfMissing SymlinkPolicy = ""
	// SymlinkSkip never touches links.
	SymlinkSkip SymlinkPolicy = "skip"
	// SymlinkForce replaces whatever is at the link path.
	SymlinkForce SymlinkPolicy = "force"
)

// Packaging selects the artifact convention published for a release.
type Packaging string

const (
	// PackagingArchive is an OS/arch-suffixed archive per platform
	// (.zip on windows, .tar.gz elsewhere).
	PackagingArchive Packaging = "archive"
	// PackagingBinary is a raw executable, suffixed only for
	// non-default architectures.
	PackagingBinary Packaging = "binary"
)

// Config holds every input the install pipeline consumes. Fields are
// populated by Load and never mutated afterwards.
type Config struct {
	// Channel is the release track to resolve when no explicit version
	// or commit is given (e.g. "stable", "latest").
	Channel string

	// ChannelURL is the base of the channel-resolution endpoint.
	ChannelURL string

	// ReleaseURL is the base of the release-hosting endpoint.
	ReleaseURL string

	// StorageURL is the base of the commit-scoped storage endpoint used
	// for developer builds.
	StorageURL string

	// Version pins an explicit release tag, bypassing channel resolution.
	Version string

	// Commit pins a CI build; takes precedence over Version and Channel
	// and switches all URLs to StorageURL.
	Commit string

	// BinDir is the installation directory.
	BinDir string

	// BinDirReadOnly marks BinDir as not writable by this run. It forces
	// SkipDownload.
	BinDirReadOnly bool

	// SkipDownload skips the whole fetch/verify sequence and only asserts
	// that an executable binary is already present.
	SkipDownload bool

	// SymlinkPolicy controls secondary link creation after placement.
	SymlinkPolicy SymlinkPolicy

	// Links are the secondary link names to maintain in BinDir. Empty by
	// default; the policy then has nothing to apply.
	Links []string

	// Packaging is the artifact convention for the resolved release.
	Packaging Packaging

	// Transport names the download transport: "builtin" (default),
	// "curl", "wget", or "probe".
	Transport string

	// GPGKeyring is an optional path to an armored public keyring. When
	// set, the artifact's detached signature is fetched and verified.
	GPGKeyring string

	// Privileged records whether the process runs as root. Captured once
	// here so the pipeline never consults process state directly.
	Privileged bool
}

// Load builds a Config from the given environment lookup function
// (normally os.Getenv). It fills in all defaults, probes for a writable
// install directory, and returns a fully populated Config.
func Load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Channel:    getenv("INSTALL_ACORN_CHANNEL"),
		ChannelURL: getenv("INSTALL_ACORN_CHANNEL_URL"),
		ReleaseURL: getenv("INSTALL_ACORN_RELEASE_URL"),
		StorageURL: getenv("INSTALL_ACORN_STORAGE_URL"),
		Version:    getenv("INSTALL_ACORN_VERSION"),
		Commit:     getenv("INSTALL_ACORN_COMMIT"),
		BinDir:     getenv("INSTALL_ACORN_BIN_DIR"),
		GPGKeyring: getenv("INSTALL_ACORN_GPG_KEYRING"),
		Transport:  getenv("INSTALL_ACORN_TRANSPORT"),
		Privileged: os.Geteuid() == 0,
	}

	cfg.SkipDownload = isTruthy(getenv("INSTALL_ACORN_SKIP_DOWNLOAD"))
	cfg.BinDirReadOnly = isTruthy(getenv("INSTALL_ACORN_BIN_DIR_READ_ONLY"))

	// A read-only install directory means this run cannot place a binary,
	// so downloading would be wasted work at best.
	if cfg.BinDirReadOnly {
		cfg.SkipDownload = true
	}

	switch policy := SymlinkPolicy(getenv("INSTALL_ACORN_SYMLINK")); policy {
	case SymlinkIfMissing, SymlinkSkip, SymlinkForce:
		cfg.SymlinkPolicy = policy
	default:
		return nil, fmt.Errorf("invalid symlink policy %q (want \"skip\", \"force\" or unset)", policy)
	}

	switch packaging := Packaging(getenv("INSTALL_ACORN_PACKAGING")); packaging {
	case PackagingArchive, PackagingBinary:
		cfg.Packaging = packaging
	case "":
		cfg.Packaging = PackagingArchive
	default:
		return nil, fmt.Errorf("invalid packaging %q (want \"archive\" or \"binary\")", packaging)
	}

	// Defaults for everything still unset.
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.ChannelURL == "" {
		cfg.ChannelURL = DefaultChannelURL
	}
	if cfg.ReleaseURL == "" {
		cfg.ReleaseURL = DefaultReleaseURL
	}
	if cfg.StorageURL == "" {
		cfg.StorageURL = DefaultStorageURL
	}
	if cfg.BinDir == "" {
		cfg.BinDir = probeBinDir()
	}

	return cfg, nil
}

// binaryFileName returns the on-disk name of the managed binary for the
// given operating system.
func binaryFileName(goos string) string {
	if goos == "windows" {
		return BinaryName + ".exe"
	}
	return BinaryName
}

// BinPath returns the full path of the managed binary.
func (c *Config) BinPath() string {
	return filepath.Join(c.BinDir, binaryFileName(runtime.GOOS))
}

// DigestPath returns the path of the record holding the digest of the
// artifact the installed binary was unpacked from.
func (c *Config) DigestPath() string {
	return filepath.Join(c.BinDir, "."+BinaryName+".sha256")
}

// CommitScoped reports whether this run installs a CI build from the
// commit-scoped storage endpoint.
func (c *Config) CommitScoped() bool {
	return c.Commit != ""
}

// probeBinDir selects the install directory: /usr/local/bin when writable,
// else /opt/bin when that directory exists. A failed probe is not an error;
// it only steers the choice.
func probeBinDir() string {
	if dirWritable(primaryBinDir) {
		return primaryBinDir
	}
	if info, err := os.Stat(fallbackBinDir); err == nil && info.IsDir() {
		log.Warnf("%s is not writable, installing to %s instead", primaryBinDir, fallbackBinDir)
		return fallbackBinDir
	}
	// Keep the primary so a later placement failure reports the real
	// permission problem instead of a missing fallback.
	return primaryBinDir
}

// dirWritable checks write access with a harmless create-and-remove probe.
func dirWritable(dir string) bool {
	probe, err := os.CreateTemp(dir, ".acorn-install-probe-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return true
}

// isTruthy interprets the conventional affirmative spellings used by
// install environments.
func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
