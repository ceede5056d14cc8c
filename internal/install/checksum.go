package install

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// hashFile computes the hex SHA-256 digest of a file.
func hashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum extracts the digest recorded for filename in a checksum
// manifest. Lines have the conventional "digest  filename" form; the first
// whitespace-delimited field is the hex digest. Filenames are matched
// exactly first, then by basename for manifests that record paths.
func findChecksum(manifestPath, filename string) (string, error) {
	file, err := os.Open(manifestPath)
	if err != nil {
		return "", fmt.Errorf("open checksum manifest: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		// sha256sum's binary mode prefixes the name with "*".
		name := strings.TrimPrefix(fields[1], "*")
		if name == filename || filepath.Base(name) == filename {
			return fields[0], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read checksum manifest: %w", err)
	}

	return "", fmt.Errorf("no checksum entry for %s", filename)
}

// digestsEqual compares two hex digests case-insensitively.
func digestsEqual(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
