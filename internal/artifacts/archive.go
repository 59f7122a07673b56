package artifacts

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"bookgenre/pkg/genre"
)

// markerFile records which bundle key was extracted into the cache directory.
const markerFile = ".bundle"

// Archive downloads a .tar.gz model bundle from an ObjectStore, unpacks it
// into the bundle directory and then loads it like a Dir.
type Archive struct {
	store ObjectStore
	key   string
	dir   *Dir
}

// NewArchive creates an Archive provider. opts.Dir is where the bundle is unpacked.
func NewArchive(store ObjectStore, key string, opts DirOptions) *Archive {
	return &Archive{store: store, key: key, dir: NewDir(opts)}
}

// Load fetches the bundle unless it is already unpacked, then reads it.
func (a *Archive) Load(ctx context.Context) (*genre.Artifacts, error) {
	if err := a.Fetch(ctx, false); err != nil {
		return nil, err
	}
	return a.dir.Load(ctx)
}

// Fetch downloads and unpacks the bundle. Without force it is a no-op when
// the same key was unpacked before. The bundle is unpacked into a staging
// directory next to the bundle directory and swapped in whole, so a failed
// fetch leaves the previous bundle untouched and files from an older key
// never survive into a new one.
func (a *Archive) Fetch(ctx context.Context, force bool) error {
	dest := a.dir.opts.Dir
	logger := log.WithFields(log.Fields{"key": a.key, "dir": dest})

	if !force && a.extracted() {
		logger.Debug("Model bundle already unpacked, skipping download")
		return nil
	}
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", genre.ErrArtifactLoad, parent, err)
	}
	staging, err := os.MkdirTemp(parent, filepath.Base(dest)+".staging-")
	if err != nil {
		return fmt.Errorf("%w: create staging dir: %w", genre.ErrArtifactLoad, err)
	}
	defer os.RemoveAll(staging)

	tarPath := staging + ".tar.gz"
	logger.Info("Downloading model bundle")
	if err := a.download(ctx, tarPath); err != nil {
		return fmt.Errorf("%w: download %s: %w", genre.ErrArtifactLoad, a.key, err)
	}
	defer os.Remove(tarPath)

	f, err := os.Open(tarPath)
	if err != nil {
		return fmt.Errorf("%w: %w", genre.ErrArtifactLoad, err)
	}
	n, err := Extract(f, staging)
	f.Close()
	if err != nil {
		return fmt.Errorf("%w: extract %s: %w", genre.ErrArtifactLoad, a.key, err)
	}
	if err := os.WriteFile(filepath.Join(staging, markerFile), []byte(a.key), 0o644); err != nil {
		return fmt.Errorf("%w: write marker: %w", genre.ErrArtifactLoad, err)
	}
	if err := swapDir(staging, dest); err != nil {
		return fmt.Errorf("%w: install bundle: %w", genre.ErrArtifactLoad, err)
	}
	logger.WithField("files", n).Info("Model bundle unpacked")
	return nil
}

// swapDir replaces dest with src. The old dest is moved aside first and
// restored if the rename fails.
func swapDir(src, dest string) error {
	old := dest + ".old"
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	hadOld := true
	if err := os.Rename(dest, old); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		hadOld = false
	}
	if err := os.Rename(src, dest); err != nil {
		if hadOld {
			os.Rename(old, dest)
		}
		return err
	}
	if hadOld {
		return os.RemoveAll(old)
	}
	return nil
}

func (a *Archive) extracted() bool {
	raw, err := os.ReadFile(filepath.Join(a.dir.opts.Dir, markerFile))
	return err == nil && string(raw) == a.key
}

// download copies the object to path via a temporary file, so an interrupted
// transfer never leaves a truncated bundle behind.
func (a *Archive) download(ctx context.Context, path string) error {
	body, err := a.store.Open(ctx, a.key)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Extract unpacks a gzip-compressed tar stream into dest and returns the
// number of regular files written. Entries that would land outside dest are
// rejected; links and special files are skipped.
func Extract(r io.Reader, dest string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, err
	}

	tr := tar.NewReader(gz)
	files := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return files, fmt.Errorf("read tar: %w", err)
		}

		target, err := safeJoin(root, hdr.Name)
		if err != nil {
			return files, err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return files, err
			}
			files++
		default:
			log.WithFields(log.Fields{"entry": hdr.Name, "type": string(hdr.Typeflag)}).Debug("Skipping non-regular tar entry")
		}
	}
}

func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("tar entry %q escapes %s", name, root)
	}
	return target, nil
}

func writeFile(path string, r io.Reader, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
