package setup

import (
	"archive/tar"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/benpapworth/waftools/internal/errors"
)

// extract unpacks a waf release archive. Releases ship as tar.bz2; the
// compression is sniffed from the content, so gzip mirrors work too.
func extract(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to open archive")
	}
	defer f.Close()

	buffered := bufio.NewReader(f)
	magic, err := buffered.Peek(3)
	if err != nil {
		return errors.WrapError(err, errors.CategoryTool, "failed to read archive")
	}

	var reader io.Reader
	switch {
	case bytes.HasPrefix(magic, []byte{0x1f, 0x8b}):
		gz, err := gzip.NewReader(buffered)
		if err != nil {
			return errors.WrapError(err, errors.CategoryTool, "failed to read archive")
		}
		defer gz.Close()
		reader = gz
	case bytes.HasPrefix(magic, []byte("BZh")):
		reader = bzip2.NewReader(buffered)
	default:
		return errors.New(errors.CategoryTool, errors.SeverityError, "unrecognized archive format").
			WithContext("archive", archive)
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.WrapError(err, errors.CategoryTool, "failed to read archive")
		}
		if err := extractMember(tr, hdr, dest); err != nil {
			return err
		}
	}
}

func extractMember(tr *tar.Reader, hdr *tar.Header, dest string) error {
	// Keep members inside the destination.
	name := filepath.FromSlash(hdr.Name)
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return errors.New(errors.CategoryTool, errors.SeverityError, "archive member escapes destination").
			WithContext("member", hdr.Name)
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o750)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to create archive directory")
		}
		mode := os.FileMode(hdr.Mode).Perm()
		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
		if err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to create extracted file")
		}
		if _, err := io.Copy(f, tr); err != nil {
			_ = f.Close()
			return errors.WrapError(err, errors.CategoryIO, "failed to extract file")
		}
		return f.Close()
	default:
		// Symlinks and specials do not occur in waf releases.
		return nil
	}
}
