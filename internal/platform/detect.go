package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/acornlabs/acorn-installer/internal/config"
)

// Detect derives the Target for the host this process runs on. Unsupported
// platforms are an error; callers abort before any network activity.
func Detect(packaging config.Packaging) (*Target, error) {
	return Resolve(runtime.GOOS, runtime.GOARCH, packaging)
}

// Resolve derives a Target from explicit OS and architecture strings. It
// accepts both Go runtime names and the uname-style aliases seen in release
// tooling (x86_64, aarch64, macos).
func Resolve(goos, goarch string, packaging config.Packaging) (*Target, error) {
	osName, err := normalizeOS(goos)
	if err != nil {
		return nil, err
	}

	arch, err := normalizeArch(goarch)
	if err != nil {
		return nil, err
	}

	// Under the raw-binary convention macOS ships one universal build;
	// the concrete architecture no longer matters.
	if packaging == config.PackagingBinary && osName == Darwin {
		arch = Universal
	}

	return &Target{OS: osName, Arch: arch, Packaging: packaging}, nil
}

// normalizeOS maps an OS name to a supported OS.
func normalizeOS(goos string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "linux":
		return Linux, nil
	case "darwin", "macos":
		return Darwin, nil
	case "windows":
		return Windows, nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
}

// normalizeArch maps an architecture name to a supported Arch.
func normalizeArch(goarch string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(goarch)) {
	case "amd64", "x86_64":
		return AMD64, nil
	case "arm64", "aarch64":
		return ARM64, nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", goarch)
	}
}

// Describe returns a human-readable platform description for log output.
// On Linux it includes the distribution and version when gopsutil can
// detect them; detection failure falls back to plain os/arch.
func Describe(ctx context.Context, target *Target) string {
	base := fmt.Sprintf("%s/%s", target.OS, target.Arch)

	if target.OS != Linux {
		return base
	}

	distro, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil || distro == "" {
		return base
	}
	if version == "" {
		return fmt.Sprintf("%s (%s)", base, distro)
	}
	return fmt.Sprintf("%s (%s %s)", base, distro, version)
}
