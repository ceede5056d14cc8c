package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/acornlabs/acorn-installer/internal/config"
	"github.com/acornlabs/acorn-installer/internal/platform"
	"github.com/acornlabs/acorn-installer/internal/transport"
)

func testConfig() *config.Config {
	return &config.Config{
		Channel:    "stable",
		ChannelURL: "https://update.example.com/channels",
		ReleaseURL: "https://releases.example.com/download",
		StorageURL: "https://storage.example.com/ci-builds",
	}
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name             string
		version, commit  string
		wantVersion      string
		wantCommitScoped bool
	}{
		{"commit_only", "", "deadbeef", "deadbeef", true},
		{"commit_beats_version", "v9.9.9", "deadbeef", "deadbeef", true},
		{"version_only", "v1.2.3", "", "v1.2.3", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Version = tt.version
			cfg.Commit = tt.commit

			// A nil transport proves these paths never touch the network.
			resolution, err := Resolve(context.Background(), cfg, nil)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if resolution.Version != tt.wantVersion {
				t.Errorf("Version = %q, want %q", resolution.Version, tt.wantVersion)
			}
			if resolution.CommitScoped != tt.wantCommitScoped {
				t.Errorf("CommitScoped = %v, want %v", resolution.CommitScoped, tt.wantCommitScoped)
			}
		})
	}
}

func TestResolveChannelRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels/stable":
			http.Redirect(w, r, "/download/v1.2.3", http.StatusFound)
		case "/download/v1.2.3":
			w.Write([]byte("release v1.2.3"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.ChannelURL = server.URL + "/channels"

	resolution, err := Resolve(context.Background(), cfg, transport.NewHTTP())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolution.Version != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3", resolution.Version)
	}
	if resolution.CommitScoped {
		t.Error("channel resolution must not be commit-scoped")
	}
}

func TestResolveChannelWithoutRedirect(t *testing.T) {
	// The endpoint answers 200 without redirecting anywhere.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.ChannelURL = server.URL + "/channels"

	if _, err := Resolve(context.Background(), cfg, transport.NewHTTP()); err == nil {
		t.Error("Resolve() should fail when the channel does not redirect")
	}
}

func TestResolveChannelUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	cfg := testConfig()
	cfg.ChannelURL = server.URL + "/channels"

	if _, err := Resolve(context.Background(), cfg, transport.NewHTTP()); err == nil {
		t.Error("Resolve() should propagate channel lookup failures")
	}
}

func TestReleaseScopedURLs(t *testing.T) {
	cfg := testConfig()
	target, err := platform.Resolve("linux", "amd64", config.PackagingArchive)
	if err != nil {
		t.Fatalf("platform.Resolve() error = %v", err)
	}

	resolution := Resolution{Version: "v1.2.3"}

	wantManifest := "https://releases.example.com/download/v1.2.3/checksums.txt"
	if got := resolution.ManifestURL(cfg, target); got != wantManifest {
		t.Errorf("ManifestURL() = %q, want %q", got, wantManifest)
	}

	wantArtifact := "https://releases.example.com/download/v1.2.3/acorn-v1.2.3-linux-amd64.tar.gz"
	if got := resolution.ArtifactURL(cfg, target); got != wantArtifact {
		t.Errorf("ArtifactURL() = %q, want %q", got, wantArtifact)
	}

	if got := resolution.SignatureURL(cfg, target); got != wantArtifact+".sig" {
		t.Errorf("SignatureURL() = %q, want %q", got, wantArtifact+".sig")
	}
}

func TestCommitScopedURLs(t *testing.T) {
	cfg := testConfig()
	cfg.Commit = "deadbeef"

	target, err := platform.Resolve("linux", "arm64", config.PackagingBinary)
	if err != nil {
		t.Fatalf("platform.Resolve() error = %v", err)
	}

	resolution, err := Resolve(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	// Every URL must come from the storage endpoint, never the release host.
	urls := []string{
		resolution.ManifestURL(cfg, target),
		resolution.ArtifactURL(cfg, target),
		resolution.SignatureURL(cfg, target),
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "https://storage.example.com/ci-builds/deadbeef/") {
			t.Errorf("URL %q is not commit-scoped", u)
		}
		if strings.Contains(u, "releases.example.com") {
			t.Errorf("URL %q leaks the release endpoint", u)
		}
	}

	wantManifest := "https://storage.example.com/ci-builds/deadbeef/sha256sum-arm64.txt"
	if got := resolution.ManifestURL(cfg, target); got != wantManifest {
		t.Errorf("ManifestURL() = %q, want %q", got, wantManifest)
	}
	wantArtifact := "https://storage.example.com/ci-builds/deadbeef/acorn-arm64"
	if got := resolution.ArtifactURL(cfg, target); got != wantArtifact {
		t.Errorf("ArtifactURL() = %q, want %q", got, wantArtifact)
	}
}

func TestTrailingSlashNormalization(t *testing.T) {
	cfg := testConfig()
	cfg.ReleaseURL = "https://releases.example.com/download/"

	target, err := platform.Resolve("linux", "amd64", config.PackagingArchive)
	if err != nil {
		t.Fatalf("platform.Resolve() error = %v", err)
	}

	got := Resolution{Version: "v1.2.3"}.ManifestURL(cfg, target)
	if strings.Contains(got, "//v1.2.3") {
		t.Errorf("ManifestURL() = %q contains a doubled slash", got)
	}
}
