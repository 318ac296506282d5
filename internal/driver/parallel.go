package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/defermelowie/cbindgen/internal/diag"
	"github.com/defermelowie/cbindgen/internal/source"
	"github.com/defermelowie/cbindgen/internal/syntax"
)

// DeclFileSuffix is the extension of crate declaration files.
const DeclFileSuffix = ".cbi"

// CrateResult contains the parsed declarations of one crate root.
type CrateResult struct {
	Root   string
	Files  []string
	Decls  []syntax.Decl
	Bag    *diag.Bag
	Digest Digest
	Cached bool
}

// listDeclFiles returns the sorted list of all declaration files under dir.
func listDeclFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, DeclFileSuffix) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Sorted for deterministic order.
	sort.Strings(files)
	return files, nil
}

// ParseCrate loads and parses every declaration file under root. Files are
// preloaded into fset sequentially (the FileSet is not goroutine-safe);
// parsing then runs in parallel. When cache is non-nil and the crate's
// content digest has a cached payload, the parse step is skipped entirely.
func ParseCrate(ctx context.Context, fset *source.FileSet, root string, cache *DiskCache, maxDiagnostics, jobs int) (*CrateResult, error) {
	files, err := listDeclFiles(root)
	if err != nil {
		return nil, err
	}

	res := &CrateResult{Root: root, Files: files, Bag: diag.NewBag(maxDiagnostics)}
	if len(files) == 0 {
		return res, nil
	}

	// Preload all files. Load errors become diagnostics, not hard stops,
	// so one unreadable file does not hide the rest of the crate.
	fileIDs := make([]source.FileID, len(files))
	loaded := make([]bool, len(files))
	relPaths := make([]string, len(files))
	hashes := make([]Digest, len(files))
	allLoaded := true
	for i, path := range files {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		relPaths[i] = filepath.ToSlash(rel)

		id, loadErr := fset.Load(path)
		if loadErr != nil {
			allLoaded = false
			res.Bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.IOLoadFileError,
				Message:  "failed to load " + path + ": " + loadErr.Error(),
			})
			continue
		}
		fileIDs[i] = id
		loaded[i] = true
		hashes[i] = fset.Get(id).Hash
	}

	// Cache lookup. The digest covers the exact file list and contents, so
	// a hit means the cached declarations are byte-equivalent to a fresh
	// parse; only the spans need re-seating at the crate's current base.
	if allLoaded {
		res.Digest = crateDigest(root, relPaths, hashes)
		var payload cratePayload
		if hit, cacheErr := cache.Get(res.Digest, &payload); cacheErr == nil && hit {
			rebase(payload.Decls, int64(fileIDs[0]))
			res.Decls = payload.Decls
			res.Cached = true
			return res, nil
		}
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Per-file result slots; each goroutine writes its own index.
	perFile := make([][]syntax.Decl, len(files))
	perBag := make([]*diag.Bag, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i := range files {
		g.Go(func(i int) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				if !loaded[i] {
					return nil
				}
				bag := diag.NewBag(maxDiagnostics)
				perBag[i] = bag

				file := fset.Get(fileIDs[i])
				decls, parseErr := syntax.Parse(file.ID, file.Content)
				if parseErr != nil {
					bag.Add(diag.Diagnostic{
						Severity: diag.SevError,
						Code:     diag.BuildSyntaxError,
						Message:  file.Path + ": " + parseErr.Error(),
						Primary:  source.Span{File: file.ID},
					})
					return nil
				}
				perFile[i] = decls
				return nil
			}
		}(i))
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	// Concatenate in file order and reindex within the crate.
	for i := range files {
		if perBag[i] != nil {
			res.Bag.Merge(perBag[i])
		}
		for _, d := range perFile[i] {
			d.Index = len(res.Decls)
			res.Decls = append(res.Decls, d)
		}
	}

	if allLoaded && !res.Bag.HasErrors() {
		storePayload(cache, res, relPaths, fileIDs[0])
	}
	return res, nil
}

// storePayload writes a crate's declarations to the disk cache with
// crate-relative file IDs. The declarations are cloned first so rebasing
// does not disturb the spans handed back to the pipeline.
func storePayload(cache *DiskCache, res *CrateResult, relPaths []string, base source.FileID) {
	if cache == nil {
		return
	}
	decls := make([]syntax.Decl, len(res.Decls))
	copy(decls, res.Decls)
	for i := range decls {
		attrs := make([]syntax.Attr, len(decls[i].Attrs))
		copy(attrs, decls[i].Attrs)
		decls[i].Attrs = attrs
	}
	rebase(decls, -int64(base))

	// Cache write failures are invisible: the next run just re-parses.
	_ = cache.Put(res.Digest, &cratePayload{
		Schema:    diskCacheSchemaVersion,
		Root:      res.Root,
		FilePaths: relPaths,
		Decls:     decls,
	})
}
