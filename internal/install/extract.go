package install

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// extractMember pulls the single named member out of an archive and writes
// it to destPath with executable permissions. The archive format follows
// from the file extension recorded on the platform target.
func extractMember(archivePath, destPath, member string) error {
	if strings.HasSuffix(archivePath, ".zip") {
		return extractZipMember(archivePath, destPath, member)
	}
	return extractTarGzMember(archivePath, destPath, member)
}

// extractTarGzMember scans a .tar.gz archive for the member and extracts
// just that file.
func extractTarGzMember(archivePath, destPath, member string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return fmt.Errorf("%s not found in archive", member)
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		// Reject traversal names before looking at them any further.
		if strings.Contains(header.Name, "..") {
			return fmt.Errorf("illegal member path: %s", header.Name)
		}

		if header.Typeflag == tar.TypeReg && filepath.Base(header.Name) == member {
			return writeMember(destPath, tarReader)
		}
	}
}

// extractZipMember scans a .zip archive for the member and extracts just
// that file.
func extractZipMember(archivePath, destPath, member string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	for _, entry := range reader.File {
		if strings.Contains(entry.Name, "..") {
			return fmt.Errorf("illegal member path: %s", entry.Name)
		}
		if entry.FileInfo().IsDir() || filepath.Base(entry.Name) != member {
			continue
		}

		content, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open member %s: %w", entry.Name, err)
		}
		err = writeMember(destPath, content)
		content.Close()
		return err
	}
	return fmt.Errorf("%s not found in archive", member)
}

// writeMember writes one extracted file with executable permissions.
func writeMember(destPath string, content io.Reader) error {
	outFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(outFile, content); err != nil {
		outFile.Close()
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return outFile.Close()
}
