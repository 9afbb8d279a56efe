// Package registry discovers compiled extension modules in a directory,
// probes each one's meta() export, and persists the result as a lock file
// mapping extension ids to their base URLs, languages, and on-disk path —
// so a host can route a novel URL to the right extension without loading
// every extension up front.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/quellehq/quelle/runtime"
)

// LockFileVersion is the schema version written to every generated lock
// file, bumped only if the on-disk shape changes incompatibly.
const LockFileVersion = 1

// LockFile is the persisted result of scanning an extensions directory.
type LockFile struct {
	Version    int                  `json:"version"`
	Extensions map[string]Extension `json:"extensions"`
}

// Extension is one discovered extension's routing metadata, keyed by its
// meta.ID in LockFile.Extensions.
type Extension struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	BaseURLs []string `json:"base_urls"`
	Langs    []string `json:"langs"`
	Path     string   `json:"path"`
}

// maxConcurrentProbes bounds how many extension modules are compiled and
// instantiated at once during Generate: each probe briefly holds a full
// wazero module instance, and an extensions directory can hold far more
// files than should be loaded into memory simultaneously.
const maxConcurrentProbes = 4

// Generate scans extensionsDir non-recursively for *.wasm files, loads
// each one just long enough to call its meta() export, and returns the
// resulting LockFile. It does not write the file to disk; call Save for
// that.
func Generate(ctx context.Context, extensionsDir string) (*LockFile, error) {
	entries, err := os.ReadDir(extensionsDir)
	if err != nil {
		return nil, fmt.Errorf("registry: reading extensions directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".wasm") {
			slog.Debug("registry: skipped non-wasm file", "name", entry.Name())
			continue
		}
		paths = append(paths, filepath.Join(extensionsDir, entry.Name()))
	}

	return probeAll(ctx, paths)
}

// GenerateGlob is Generate's recursive counterpart: pattern is a
// doublestar glob (e.g. "**/*.wasm") matched against rootDir's subtree,
// for extension layouts organized into per-language or per-source
// subdirectories rather than one flat directory.
func GenerateGlob(ctx context.Context, rootDir, pattern string) (*LockFile, error) {
	matches, err := doublestar.Glob(os.DirFS(rootDir), pattern)
	if err != nil {
		return nil, fmt.Errorf("registry: matching glob %q: %w", pattern, err)
	}

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = filepath.Join(rootDir, m)
	}

	return probeAll(ctx, paths)
}

func probeAll(ctx context.Context, paths []string) (*LockFile, error) {
	rt, err := runtime.New(ctx, runtime.Config{})
	if err != nil {
		return nil, fmt.Errorf("registry: creating runtime: %w", err)
	}
	defer rt.Close(ctx)

	var (
		mu         sync.Mutex
		extensions = make(map[string]Extension)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for _, path := range paths {
		g.Go(func() error {
			slog.Info("registry: reading meta info", "path", path)

			ext, id, err := probe(gctx, rt, path)
			if err != nil {
				return fmt.Errorf("registry: probing %q: %w", path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if existing, ok := extensions[id]; ok {
				return fmt.Errorf("registry: Both '%s' and '%s' have the same id", existing.Name, ext.Name)
			}
			extensions[id] = ext
			slog.Info("registry: found extension", "id", id, "version", ext.Version)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &LockFile{Version: LockFileVersion, Extensions: extensions}, nil
}

func probe(ctx context.Context, rt *runtime.Runtime, path string) (Extension, string, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return Extension{}, "", fmt.Errorf("reading module: %w", err)
	}

	ext, err := rt.Load(ctx, filepath.Base(path), wasmBytes)
	if err != nil {
		return Extension{}, "", fmt.Errorf("loading module: %w", err)
	}
	defer ext.Close(ctx)

	meta, err := ext.Meta(ctx)
	if err != nil {
		return Extension{}, "", fmt.Errorf("calling meta: %w", err)
	}

	return Extension{
		Name:     meta.Name,
		Version:  meta.Version,
		BaseURLs: meta.BaseURLs,
		Langs:    meta.Langs,
		Path:     path,
	}, meta.ID, nil
}

// Open reads and parses a lock file previously written by Save.
func Open(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("registry: opening lock file: %w", err)
	}

	var lf LockFile
	if err := validateLockFileJSON(data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("registry: parsing lock file: %w", err)
	}
	if lf.Version != LockFileVersion {
		return nil, fmt.Errorf("registry: unsupported lock file version %d (expected %d)", lf.Version, LockFileVersion)
	}
	return &lf, nil
}

// Save writes lf to path as indented JSON, creating or truncating it.
func (lf *LockFile) Save(path string) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encoding lock file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("registry: writing lock file: %w", err)
	}
	return nil
}

// Detect returns the extension whose base URL prefixes url, if any, by
// linear scan over every registered extension's base URLs.
func (lf *LockFile) Detect(url string) (*Extension, bool) {
	for _, ext := range lf.Extensions {
		for _, base := range ext.BaseURLs {
			if strings.HasPrefix(url, base) {
				e := ext
				return &e, true
			}
		}
	}
	return nil, false
}
