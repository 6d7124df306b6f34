package convert

import (
	"bytes"
	"crypto/md5" // #nosec G501 -- content fingerprint, not a security boundary
	"encoding/hex"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// persister writes a run's files. Every write goes to <path>.tmp first and is renamed over the
// target; bytes identical to what the run already wrote, or to what is already on disk, are not
// written again.
type persister struct {
	fs      afero.Fs
	log     *zap.Logger
	written map[string]string
}

func newPersister(fs afero.Fs, log *zap.Logger) *persister {
	return &persister{fs: fs, log: log, written: make(map[string]string)}
}

// ensureLayout creates the run's output directories.
func (p *persister) ensureLayout(root string) error {
	for _, dir := range []string{sectionsDir, chaptersDir, imagesDir, metadataDir} {
		path := filepath.Join(root, dir)
		if err := p.fs.MkdirAll(path, 0o755); err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
	}
	return nil
}

func (p *persister) writeSection(s Section) (bool, error) {
	return p.writeFile(s.FilePath, []byte(renderMarkdown(s)))
}

func (p *persister) writeImage(path string, img image.Image) (bool, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return false, &PersistenceError{Path: path, Err: err}
	}
	return p.writeFile(path, buf.Bytes())
}

func (p *persister) writeJSON(path string, v any) (bool, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return false, &PersistenceError{Path: path, Err: err}
	}
	return p.writeFile(path, append(b, '\n'))
}

// writeFile reports whether data actually reached disk.
func (p *persister) writeFile(path string, data []byte) (bool, error) {
	sum := md5.Sum(data) // #nosec G401
	digest := hex.EncodeToString(sum[:])
	if p.written[path] == digest {
		p.log.Debug("skipping duplicate write", zap.String("path", path))
		return false, nil
	}
	if p.sameOnDisk(path, sum) {
		p.written[path] = digest
		return false, nil
	}
	if err := p.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, &PersistenceError{Path: path, Err: err}
	}
	tmp := path + ".tmp"
	if err := p.writeAtomic(path, tmp, data); err != nil {
		if rmErr := p.fs.Remove(tmp); rmErr != nil && !os.IsNotExist(rmErr) {
			p.log.Warn("could not remove temp file", zap.String("path", tmp), zap.Error(rmErr))
		}
		return false, &PersistenceError{Path: path, Err: err}
	}
	p.written[path] = digest
	return true, nil
}

func (p *persister) writeAtomic(path, tmp string, data []byte) error {
	f, err := p.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return p.fs.Rename(tmp, path)
}

func (p *persister) sameOnDisk(path string, sum [md5.Size]byte) bool {
	existing, err := afero.ReadFile(p.fs, path)
	if err != nil {
		return false
	}
	return md5.Sum(existing) == sum // #nosec G401
}
