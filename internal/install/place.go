package install

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/acornlabs/acorn-installer/internal/config"
)

// place moves the verified binary into the install directory. The binary is
// staged inside the directory itself and renamed onto the final path, so a
// concurrent invocation of the installed binary never observes a partially
// written file.
func (i *Installer) place(binaryPath string) error {
	if err := os.MkdirAll(i.cfg.BinDir, 0755); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	// Stage within BinDir: rename across filesystems is not atomic, and
	// the temp dir may live on another one.
	staged, err := os.CreateTemp(i.cfg.BinDir, "."+config.BinaryName+"-*")
	if err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}
	stagedPath := staged.Name()

	placed := false
	defer func() {
		if !placed {
			os.Remove(stagedPath)
		}
	}()

	source, err := os.Open(binaryPath)
	if err != nil {
		staged.Close()
		return fmt.Errorf("open binary: %w", err)
	}
	_, err = io.Copy(staged, source)
	source.Close()
	if err != nil {
		staged.Close()
		return fmt.Errorf("stage binary: %w", err)
	}
	if err := staged.Close(); err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}

	if err := os.Chmod(stagedPath, 0755); err != nil {
		return fmt.Errorf("set executable: %w", err)
	}

	// Root installs own the binary as root; unprivileged installs keep
	// the invoking user.
	if i.cfg.Privileged {
		if err := os.Chown(stagedPath, 0, 0); err != nil {
			return fmt.Errorf("chown binary: %w", err)
		}
	}

	if err := os.Rename(stagedPath, i.cfg.BinPath()); err != nil {
		return fmt.Errorf("install binary: %w", err)
	}
	placed = true
	return nil
}

// applySymlinks maintains the configured secondary links next to the
// binary according to the symlink policy.
func (i *Installer) applySymlinks() error {
	if i.cfg.SymlinkPolicy == config.SymlinkSkip || len(i.cfg.Links) == 0 {
		return nil
	}

	for _, name := range i.cfg.Links {
		linkPath := filepath.Join(i.cfg.BinDir, name)

		if _, err := os.Lstat(linkPath); err == nil {
			if i.cfg.SymlinkPolicy != config.SymlinkForce {
				continue
			}
			if err := os.Remove(linkPath); err != nil {
				return fmt.Errorf("replace link %s: %w", linkPath, err)
			}
		}

		if err := os.Symlink(config.BinaryName, linkPath); err != nil {
			return fmt.Errorf("create link %s: %w", linkPath, err)
		}
		log.Infof("created symlink %s", linkPath)
	}
	return nil
}
