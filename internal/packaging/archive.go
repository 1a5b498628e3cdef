package packaging

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
)

// ArchiveName returns the archive filename for the application.
func ArchiveName(m *buildmodel.Model) string {
	return fmt.Sprintf("%s-%s.tar.gz", m.Project.AppName, m.Project.Version)
}

// archive writes the staged files into a tar.gz in the project top.
func (p *Packager) archive(m *buildmodel.Model, top, root string, files []string, w io.Writer) error {
	name := ArchiveName(m)
	out, err := os.Create(filepath.Join(top, name))
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create archive")
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, rel := range files {
		if err := addToArchive(tw, filepath.Join(root, filepath.FromSlash(rel)), rel); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to finish archive")
	}
	if err := gz.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to finish archive")
	}
	if err := out.Close(); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to finish archive")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=======================")
	fmt.Fprintln(w, "PACKAGE (tar.gz)")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintf(w, "PREFIX=%s\n", m.Project.Prefix)
	fmt.Fprintln(w, name)
	fmt.Fprintln(w, "-----------------------")
	return nil
}

func addToArchive(tw *tar.Writer, path, rel string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to open archive member")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to stat archive member")
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to build archive header")
	}
	hdr.Name = rel

	if err := tw.WriteHeader(hdr); err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to write archive header")
	}
	if _, err := io.Copy(tw, f); err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to write archive member")
	}
	return nil
}
