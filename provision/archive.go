package provision

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// extractTool scans a tar archive for an entry whose base name matches the
// tool name and installs it, executable, at destPath. Compression is chosen
// from the archive URL suffix; h2spec-style releases ship .tar.gz, some
// projects ship .tar.xz.
func extractTool(archive io.Reader, url, name, destPath string) error {
	decompressed, err := decompress(archive, url)
	if err != nil {
		return err
	}

	tr := tar.NewReader(decompressed)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("archive does not contain an entry named %q", name)
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Base(hdr.Name) != name {
			continue
		}
		return installFile(tr, destPath)
	}
}

func decompress(r io.Reader, url string) (io.Reader, error) {
	switch {
	case strings.HasSuffix(url, ".tar.gz"), strings.HasSuffix(url, ".tgz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, nil
	case strings.HasSuffix(url, ".tar.xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return xr, nil
	case strings.HasSuffix(url, ".tar"):
		return r, nil
	}
	return nil, fmt.Errorf("unsupported archive format in URL %s", url)
}

func installFile(src io.Reader, destPath string) error {
	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(destPath)
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}
