package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/defermelowie/cbindgen/internal/source"
	"github.com/defermelowie/cbindgen/internal/syntax"
)

// Current schema version - increment when cratePayload format changes.
const diskCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 content digest.
type Digest [32]byte

// DiskCache stores parsed crate declarations on disk, keyed by the crate's
// content digest. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// cratePayload stores the parsed declarations of one crate. Declaration
// spans are stored with file IDs relative to the crate's first file, so a
// cached crate can be re-seated at any position in a fresh FileSet.
type cratePayload struct {
	Schema uint16

	Root      string
	FilePaths []string
	Decls     []syntax.Decl
}

// OpenDiskCache initializes and returns a disk cache rooted at dir. An
// empty dir selects the standard per-user cache location.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "cbindgen")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "crates", hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *cratePayload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a payload from the disk cache. A payload
// written under a different schema version is treated as a miss.
func (c *DiskCache) Get(key Digest, out *cratePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()
	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, err
	}
	if out.Schema != diskCacheSchemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// crateDigest aggregates the content hashes of a crate's files. The file
// list is already sorted, so the digest is stable across runs.
func crateDigest(root string, paths []string, hashes []Digest) Digest {
	h := sha256.New()
	h.Write([]byte{byte(diskCacheSchemaVersion >> 8), byte(diskCacheSchemaVersion)})
	h.Write([]byte(filepath.Base(root)))
	for i, p := range paths {
		h.Write([]byte{0})
		h.Write([]byte(p))
		h.Write(hashes[i][:])
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// rebase shifts declaration spans by the given file ID delta. Cached
// payloads store crate-relative IDs; loading re-seats them at the crate's
// first file in the current FileSet.
func rebase(decls []syntax.Decl, delta int64) {
	shift := func(sp *source.Span) {
		if sp.Empty() && sp.File == 0 {
			return
		}
		sp.File = source.FileID(int64(sp.File) + delta)
	}
	for i := range decls {
		shift(&decls[i].Span)
		for j := range decls[i].Attrs {
			shift(&decls[i].Attrs[j].Span)
		}
	}
}
