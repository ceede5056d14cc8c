// Package install implements the verified download-and-install pipeline:
// resolve a version, fetch its checksum manifest, short-circuit when the
// installed binary already matches, fetch and verify the artifact, and
// place it atomically into the install directory.
//
// Every stage returns an error instead of terminating; the command wrapper
// owns logging the failure and choosing the exit code. All temporary state
// lives in one per-run directory that is removed on every return path.
package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/acornlabs/acorn-installer/internal/config"
	"github.com/acornlabs/acorn-installer/internal/platform"
	"github.com/acornlabs/acorn-installer/internal/release"
	"github.com/acornlabs/acorn-installer/internal/transport"
)

// Installer runs the pipeline once. Collaborators left nil are created
// from the config at the appropriate stage, keeping the stage order of the
// pipeline intact (platform detection before any transport use, transport
// selection before any URL is fetched).
type Installer struct {
	cfg       *config.Config
	target    *platform.Target
	transport transport.Transport
}

// New creates an Installer for the given configuration.
func New(cfg *config.Config) *Installer {
	return &Installer{cfg: cfg}
}

// Run executes the install pipeline. It is a no-op (with exit success) when
// the installed binary is already up to date, and it never leaves a partial
// binary at the install path.
func (i *Installer) Run(ctx context.Context) error {
	// Skip mode only asserts that a usable binary is already in place.
	// No platform detection, no network.
	if i.cfg.SkipDownload {
		return i.assertInstalled()
	}

	if i.target == nil {
		target, err := platform.Detect(i.cfg.Packaging)
		if err != nil {
			return err
		}
		i.target = target
	}
	log.Infof("installing for %s", platform.Describe(ctx, i.target))

	if i.transport == nil {
		selected, err := transport.Select(i.cfg.Transport)
		if err != nil {
			return err
		}
		i.transport = selected
	}
	log.Infof("using %s transport", i.transport.Name())

	resolution, err := release.Resolve(ctx, i.cfg, i.transport)
	if err != nil {
		return err
	}
	if resolution.CommitScoped {
		log.Infof("installing commit build %s", resolution.Version)
	} else {
		log.Infof("installing version %s", resolution.Version)
	}

	// All downloads for this run land in one private directory, removed
	// on every return path.
	workDir, err := os.MkdirTemp("", "acorn-install-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	return i.installResolved(ctx, resolution, workDir)
}

// assertInstalled handles the skip-download mode: the binary must already
// exist and be executable.
func (i *Installer) assertInstalled() error {
	ok, err := isExecutable(i.cfg.BinPath())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("skip-download is set but no executable binary found at %s", i.cfg.BinPath())
	}
	log.Infof("skipping download, %s already present", i.cfg.BinPath())
	return nil
}

// installResolved performs the manifest, verification, and placement stages
// for an already-resolved version.
func (i *Installer) installResolved(ctx context.Context, resolution release.Resolution, workDir string) error {
	artifactName := i.target.ArtifactName(resolution.Version)

	// Checksum manifest first; it decides whether any artifact download
	// is needed at all.
	manifestPath := filepath.Join(workDir, i.target.ManifestName())
	if err := i.transport.Fetch(ctx, manifestPath, resolution.ManifestURL(i.cfg, i.target)); err != nil {
		return fmt.Errorf("download checksum manifest: %w", err)
	}

	expected, err := findChecksum(manifestPath, artifactName)
	if err != nil {
		return err
	}

	upToDate, err := i.installedMatches(expected)
	if err != nil {
		return err
	}
	if upToDate {
		log.Infof("%s is already up to date", i.cfg.BinPath())
		return nil
	}

	artifactPath := filepath.Join(workDir, artifactName)
	if err := i.transport.Fetch(ctx, artifactPath, resolution.ArtifactURL(i.cfg, i.target)); err != nil {
		return fmt.Errorf("download artifact: %w", err)
	}
	if stat, err := os.Stat(artifactPath); err == nil {
		log.Infof("downloaded %s (%s)", artifactName, humanize.Bytes(uint64(stat.Size())))
	}

	// Integrity check before anything touches the install directory. A
	// mismatch aborts with the previously installed binary intact.
	actual, err := hashFile(artifactPath)
	if err != nil {
		return fmt.Errorf("hash artifact: %w", err)
	}
	if !digestsEqual(expected, actual) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", artifactName, expected, actual)
	}

	if i.cfg.GPGKeyring != "" {
		signaturePath := artifactPath + ".sig"
		if err := i.transport.Fetch(ctx, signaturePath, resolution.SignatureURL(i.cfg, i.target)); err != nil {
			return fmt.Errorf("download signature: %w", err)
		}
		if err := verifySignature(artifactPath, signaturePath, i.cfg.GPGKeyring); err != nil {
			return err
		}
		log.Infof("verified GPG signature of %s", artifactName)
	}

	binaryPath := artifactPath
	if i.target.ArchiveExt() != "" {
		member := i.memberName()
		binaryPath = filepath.Join(workDir, member)
		if err := extractMember(artifactPath, binaryPath, member); err != nil {
			return err
		}
	}

	if err := i.place(binaryPath); err != nil {
		return err
	}
	log.Infof("installed %s", i.cfg.BinPath())

	if i.target.ArchiveExt() != "" {
		if err := i.recordDigest(expected); err != nil {
			return err
		}
	}

	return i.applySymlinks()
}

// memberName is the name of the executable inside an archive artifact.
func (i *Installer) memberName() string {
	if i.target.OS == platform.Windows {
		return config.BinaryName + ".exe"
	}
	return config.BinaryName
}

// installedMatches reports whether the currently installed binary already
// corresponds to the expected artifact digest. A missing binary simply
// means no match.
func (i *Installer) installedMatches(expected string) (bool, error) {
	// Raw-binary artifacts are installed byte for byte, so the installed
	// file can be hashed against the manifest directly.
	if i.target.ArchiveExt() == "" {
		installed, err := hashFile(i.cfg.BinPath())
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, fmt.Errorf("hash installed binary: %w", err)
		}
		return digestsEqual(expected, installed), nil
	}

	// Archive manifests cover the archive, which the extracted binary
	// cannot reproduce. Compare against the digest recorded when the
	// archive was installed instead.
	ok, err := isExecutable(i.cfg.BinPath())
	if err != nil || !ok {
		return false, err
	}
	recorded, err := os.ReadFile(i.cfg.DigestPath())
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read digest record: %w", err)
	}
	return digestsEqual(expected, strings.TrimSpace(string(recorded))), nil
}

// recordDigest remembers which artifact produced the installed binary, for
// the up-to-date check on later runs.
func (i *Installer) recordDigest(digest string) error {
	if err := os.WriteFile(i.cfg.DigestPath(), []byte(digest+"\n"), 0644); err != nil {
		return fmt.Errorf("record digest: %w", err)
	}
	return nil
}

// isExecutable reports whether path is a regular file with an execute bit.
func isExecutable(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0, nil
}
