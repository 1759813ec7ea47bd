package storage

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/photodex/photodex/pkg/errors"
	"github.com/photodex/photodex/pkg/security"
)

// ExtractLibrary unpacks a downloaded library tarball into destDir, running
// every entry through the validator. Returns the path of the extracted
// bundle root (the single top-level directory of the archive, or destDir
// itself when the archive has no common root).
func ExtractLibrary(archivePath, destDir string, validator *security.Validator) (string, error) {
	slog.Info("extract_start", "archive", archivePath, "dest", destDir)

	f, err := os.Open(archivePath)
	if err != nil {
		return "", errors.Wrap(err, "failed to open archive")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errors.Wrap(err, "failed to stat archive")
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", errors.Wrap(err, "failed to open gzip stream")
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create extraction directory")
	}

	validator.Reset()
	tr := tar.NewReader(gz)
	var extracted int64
	root := ""

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "failed to read archive entry")
		}

		if err := validator.ValidatePath(hdr.Name); err != nil {
			return "", err
		}
		target := filepath.Join(destDir, hdr.Name)

		if root == "" {
			top := topLevel(hdr.Name)
			if top != "" {
				root = filepath.Join(destDir, top)
			}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)&0o777|0o700); err != nil {
				return "", errors.Wrap(err, "failed to create directory")
			}
		case tar.TypeSymlink:
			if err := validator.ValidateSymlink(hdr.Name, hdr.Linkname); err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", errors.Wrap(err, "failed to create parent directory")
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return "", errors.Wrap(err, "failed to create symlink")
			}
		case tar.TypeReg:
			if err := validator.ValidateFileSize(hdr.Size); err != nil {
				return "", err
			}
			if err := validator.AddExtractedSize(hdr.Size); err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", errors.Wrap(err, "failed to create parent directory")
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
			if err != nil {
				return "", errors.Wrap(err, "failed to create file")
			}
			// LimitReader caps the copy at the declared size so a lying
			// header cannot exceed what the validator approved.
			n, err := io.Copy(out, io.LimitReader(tr, hdr.Size))
			out.Close()
			if err != nil {
				return "", errors.Wrap(err, "failed to extract file")
			}
			extracted += n
		default:
			slog.Debug("extract_entry_skipped", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}

	if err := validator.ValidateCompressionRatio(info.Size(), extracted); err != nil {
		return "", err
	}

	if root == "" {
		root = destDir
	}
	slog.Info("extract_complete", "root", root, "extracted_mb", extracted/1024/1024)
	return root, nil
}

func topLevel(name string) string {
	clean := filepath.Clean(name)
	for {
		dir := filepath.Dir(clean)
		if dir == "." || dir == string(filepath.Separator) {
			return clean
		}
		clean = dir
	}
}
