package platform

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/acornlabs/acorn-installer/internal/config"
)

func TestResolveArchiveConvention(t *testing.T) {
	tests := []struct {
		goos, goarch string
		wantSuffix   string
		wantExt      string
		wantArtifact string
	}{
		{"linux", "amd64", "-linux-amd64", ".tar.gz", "acorn-v1.2.3-linux-amd64.tar.gz"},
		{"linux", "arm64", "-linux-arm64", ".tar.gz", "acorn-v1.2.3-linux-arm64.tar.gz"},
		{"darwin", "amd64", "-darwin-amd64", ".tar.gz", "acorn-v1.2.3-darwin-amd64.tar.gz"},
		{"darwin", "arm64", "-darwin-arm64", ".tar.gz", "acorn-v1.2.3-darwin-arm64.tar.gz"},
		{"windows", "amd64", "-windows-amd64", ".zip", "acorn-v1.2.3-windows-amd64.zip"},
		{"windows", "arm64", "-windows-arm64", ".zip", "acorn-v1.2.3-windows-arm64.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"_"+tt.goarch, func(t *testing.T) {
			target, err := Resolve(tt.goos, tt.goarch, config.PackagingArchive)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if target.Suffix() != tt.wantSuffix {
				t.Errorf("Suffix() = %q, want %q", target.Suffix(), tt.wantSuffix)
			}
			if target.ArchiveExt() != tt.wantExt {
				t.Errorf("ArchiveExt() = %q, want %q", target.ArchiveExt(), tt.wantExt)
			}
			if got := target.ArtifactName("v1.2.3"); got != tt.wantArtifact {
				t.Errorf("ArtifactName() = %q, want %q", got, tt.wantArtifact)
			}
			if target.ManifestName() != "checksums.txt" {
				t.Errorf("ManifestName() = %q, want checksums.txt", target.ManifestName())
			}
		})
	}
}

func TestResolveRawBinaryConvention(t *testing.T) {
	tests := []struct {
		goos, goarch string
		wantArch     Arch
		wantSuffix   string
		wantArtifact string
		wantManifest string
	}{
		{"linux", "amd64", AMD64, "", "acorn", "sha256sum-amd64.txt"},
		{"linux", "arm64", ARM64, "-arm64", "acorn-arm64", "sha256sum-arm64.txt"},
		{"darwin", "amd64", Universal, "-darwin", "acorn-darwin", "sha256sum-universal.txt"},
		{"darwin", "arm64", Universal, "-darwin", "acorn-darwin", "sha256sum-universal.txt"},
		{"windows", "amd64", AMD64, "", "acorn.exe", "sha256sum-amd64.txt"},
		{"windows", "arm64", ARM64, "-arm64", "acorn-arm64.exe", "sha256sum-arm64.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"_"+tt.goarch, func(t *testing.T) {
			target, err := Resolve(tt.goos, tt.goarch, config.PackagingBinary)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if target.Arch != tt.wantArch {
				t.Errorf("Arch = %q, want %q", target.Arch, tt.wantArch)
			}
			if target.Suffix() != tt.wantSuffix {
				t.Errorf("Suffix() = %q, want %q", target.Suffix(), tt.wantSuffix)
			}
			if target.ArchiveExt() != "" {
				t.Errorf("ArchiveExt() = %q, want empty for raw binaries", target.ArchiveExt())
			}
			if got := target.ArtifactName("v1.2.3"); got != tt.wantArtifact {
				t.Errorf("ArtifactName() = %q, want %q", got, tt.wantArtifact)
			}
			if target.ManifestName() != tt.wantManifest {
				t.Errorf("ManifestName() = %q, want %q", target.ManifestName(), tt.wantManifest)
			}
		})
	}
}

func TestResolveAliases(t *testing.T) {
	tests := []struct {
		goos, goarch string
		wantOS       OS
		wantArch     Arch
	}{
		{"Linux", "x86_64", Linux, AMD64},
		{"linux", "aarch64", Linux, ARM64},
		{"macos", "arm64", Darwin, ARM64},
		{"Darwin", "x86_64", Darwin, AMD64},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"_"+tt.goarch, func(t *testing.T) {
			target, err := Resolve(tt.goos, tt.goarch, config.PackagingArchive)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if target.OS != tt.wantOS || target.Arch != tt.wantArch {
				t.Errorf("Resolve() = %s/%s, want %s/%s", target.OS, target.Arch, tt.wantOS, tt.wantArch)
			}
		})
	}
}

func TestResolveUnsupported(t *testing.T) {
	tests := []struct {
		name         string
		goos, goarch string
	}{
		{"unsupported_os", "plan9", "amd64"},
		{"unsupported_arch", "linux", "riscv64"},
		{"empty_os", "", "amd64"},
		{"empty_arch", "linux", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Resolve(tt.goos, tt.goarch, config.PackagingArchive); err == nil {
				t.Errorf("Resolve(%q, %q) should fail", tt.goos, tt.goarch)
			}
		})
	}
}

func TestDetectHost(t *testing.T) {
	target, err := Detect(config.PackagingArchive)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if string(target.OS) != runtime.GOOS {
		t.Errorf("OS = %q, want %q", target.OS, runtime.GOOS)
	}
	if target.Arch != AMD64 && target.Arch != ARM64 {
		t.Errorf("Arch = %q, want amd64 or arm64", target.Arch)
	}
}

func TestDescribe(t *testing.T) {
	target, err := Resolve("darwin", "arm64", config.PackagingArchive)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Non-Linux targets never include distro details.
	if got := Describe(context.Background(), target); got != "darwin/arm64" {
		t.Errorf("Describe() = %q, want darwin/arm64", got)
	}

	host, err := Detect(config.PackagingArchive)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	described := Describe(context.Background(), host)
	if !strings.HasPrefix(described, string(host.OS)+"/"+string(host.Arch)) {
		t.Errorf("Describe() = %q, want prefix %s/%s", described, host.OS, host.Arch)
	}
}
