// Package platform detects the host platform and derives the artifact and
// checksum-manifest names a release publishes for it.
//
// Two artifact conventions exist. The archive convention always appends an
// OS/arch suffix and packages the binary in an archive (.zip on Windows,
// .tar.gz elsewhere). The raw-binary convention publishes a bare executable,
// suffixed only for non-default architectures, with macOS treated as a
// single architecture-independent ("universal") build. The convention is
// chosen once at configuration time and recorded on the Target.
package platform

import (
	"github.com/acornlabs/acorn-installer/internal/config"
)

// OS is a supported operating system.
type OS string

const (
	Linux   OS = "linux"
	Darwin  OS = "darwin"
	Windows OS = "windows"
)

// Arch is a supported (normalized) architecture.
type Arch string

const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
	// Universal is the architecture-independent macOS build published
	// under the raw-binary convention.
	Universal Arch = "universal"
)

// Target describes the platform a single run installs for. It is derived
// once and immutable for the run.
type Target struct {
	OS        OS
	Arch      Arch
	Packaging config.Packaging
}

// Suffix returns the platform token appended to artifact names.
func (t Target) Suffix() string {
	switch t.Packaging {
	case config.PackagingBinary:
		// Default platforms carry no suffix; macOS is one universal
		// build, arm64 elsewhere is marked.
		switch {
		case t.OS == Darwin:
			return "-darwin"
		case t.Arch == ARM64:
			return "-arm64"
		default:
			return ""
		}
	default:
		return "-" + string(t.OS) + "-" + string(t.Arch)
	}
}

// ArchiveExt returns the archive extension for the target, or "" for raw
// binaries.
func (t Target) ArchiveExt() string {
	if t.Packaging == config.PackagingBinary {
		return ""
	}
	if t.OS == Windows {
		return ".zip"
	}
	return ".tar.gz"
}

// ArtifactName returns the release artifact filename for the given version.
// Commit-scoped builds use the same naming with the commit identifier in
// place of the version tag.
func (t Target) ArtifactName(version string) string {
	if t.Packaging == config.PackagingBinary {
		name := config.BinaryName + t.Suffix()
		if t.OS == Windows {
			name += ".exe"
		}
		return name
	}
	return config.BinaryName + "-" + version + t.Suffix() + t.ArchiveExt()
}

// ManifestName returns the checksum-manifest filename published alongside
// the artifact.
func (t Target) ManifestName() string {
	if t.Packaging == config.PackagingBinary {
		return "sha256sum-" + string(t.Arch) + ".txt"
	}
	return "checksums.txt"
}
