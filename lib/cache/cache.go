// Package cache stores build outputs under the project directory, keyed by
// everything that can change them.
package cache

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const Dir = ".lanec/cache"

type Cache struct {
	Path string
}

// Open prepares the cache of the project rooted at root.
func Open(root string) (*Cache, error) {
	p := filepath.Join(root, Dir)
	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, errors.Wrap(err, "creating build cache")
	}
	return &Cache{Path: p}, nil
}

// Key hashes a source file together with the settings it is compiled
// with and the compiler version.
func Key(source []byte, settings, version string) string {
	h := md5.New()
	h.Write(source)
	io.Copy(h, strings.NewReader("\x00"+settings+"\x00"+version))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func (c *Cache) file(key string) string {
	return filepath.Join(c.Path, key[:2], key)
}

// Lookup returns the stored output for key, if any.
func (c *Cache) Lookup(key string) ([]byte, bool, error) {
	out, err := os.ReadFile(c.file(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading cache entry %s", key)
	}
	return out, true, nil
}

// Store records out under key. Concurrent builds may store the same key;
// the entry is written to a temporary file and renamed into place.
func (c *Cache) Store(key string, out []byte) error {
	p := c.file(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return errors.Wrap(err, "creating cache entry")
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), key+".*")
	if err != nil {
		return errors.Wrap(err, "creating cache entry")
	}
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing cache entry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing cache entry")
	}
	return errors.Wrap(os.Rename(tmp.Name(), p), "storing cache entry")
}

// Clean removes every entry.
func (c *Cache) Clean() error {
	if err := os.RemoveAll(c.Path); err != nil {
		return errors.Wrap(err, "cleaning build cache")
	}
	return errors.Wrap(os.MkdirAll(c.Path, 0755), "cleaning build cache")
}
