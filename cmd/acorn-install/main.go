// Command acorn-install bootstraps the acorn binary onto the host: it
// resolves a release from a channel (or an explicit version or commit),
// downloads the artifact and its checksum manifest, verifies the checksum,
// and installs the binary atomically. All behavior is controlled through
// INSTALL_ACORN_* environment variables; the command takes no arguments.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/acornlabs/acorn-installer/internal/config"
	"github.com/acornlabs/acorn-installer/internal/install"
)

// version is set at build time via -ldflags.
var version = "devel"

var cmdRoot = &cobra.Command{
	Use:           "acorn-install",
	Short:         "Download, verify and install the acorn binary",
	Args:          cobra.NoArgs,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(os.Getenv)
		if err != nil {
			return err
		}
		return install.New(cfg).Run(cmd.Context())
	},
}

// bracketFormatter emits the unstructured "[LEVEL] message" lines this
// installer logs.
type bracketFormatter struct{}

func (bracketFormatter) Format(entry *log.Entry) ([]byte, error) {
	var tag string
	switch entry.Level {
	case log.WarnLevel:
		tag = "WARN"
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		tag = "ERROR"
	default:
		tag = "INFO"
	}
	return []byte(fmt.Sprintf("[%s] %s\n", tag, entry.Message)), nil
}

func main() {
	log.SetFormatter(bracketFormatter{})
	log.SetOutput(os.Stderr)

	// An interrupt cancels in-flight downloads; the pipeline's deferred
	// cleanup then runs as the error unwinds to the handler below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmdRoot.ExecuteContext(ctx); err != nil {
		// The single fatal-error path: one [ERROR] line, exit 1.
		log.Error(err)
		os.Exit(1)
	}
}
