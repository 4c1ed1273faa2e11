package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
)

// stagePrefix names the temporary directory a language is staged into.
const stagePrefix = ".nexusgen-"

// manifestVersion is bumped when the manifest layout changes.
const manifestVersion = 1

// manifest records the files written to a root by one language.
type manifest struct {
	Version  int      `msgpack:"version"`
	Language string   `msgpack:"language"`
	Files    []string `msgpack:"files"`
}

// ManifestName returns the manifest file name of a language.
func ManifestName(lang Language) string {
	return ".nexusgen-" + lang.String() + ".manifest"
}

// FilesystemOutput writes generated files to disk. Each language is first
// written to a staging directory inside its root and promoted only once
// every file was written. Unchanged files are left untouched and files
// from a previous run that are no longer generated are removed.
type FilesystemOutput struct {
	workers int
}

// NewFilesystemOutput returns a file system output writing with up to
// workers goroutines.
func NewFilesystemOutput(workers int) *FilesystemOutput {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &FilesystemOutput{workers: workers}
}

// Write stages, then promotes files into root.
func (w *FilesystemOutput) Write(ctx context.Context, lang Language, root string, files []File) error {
	if err := CheckPaths(files); err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return NewOutputError("stage", root, err)
	}
	stage := filepath.Join(root, stagePrefix+uuid.NewString())
	if err := os.Mkdir(stage, 0o755); err != nil {
		return NewOutputError("stage", stage, err)
	}
	defer os.RemoveAll(stage)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			full := filepath.Join(stage, filepath.FromSlash(f.Path))
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return NewOutputError("stage", f.Path, err)
			}
			if err := os.WriteFile(full, f.Content, 0o644); err != nil {
				return NewOutputError("stage", f.Path, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return w.promote(lang, root, stage, files)
}

// promoted is a file moved into the root, with the previous content
// kept in backup if the file existed.
type promoted struct {
	dst    string
	backup string
}

// promote moves staged files into root, removes stale files recorded by
// the previous manifest and writes the new manifest. If a file cannot be
// moved, the files moved so far are restored and root keeps its previous
// content.
func (w *FilesystemOutput) promote(lang Language, root, stage string, files []File) error {
	prev, err := readManifest(root, lang)
	if err != nil {
		return err
	}
	backups := stage + ".prev"
	defer os.RemoveAll(backups)

	var done []promoted
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			os.Remove(done[i].dst)
			if done[i].backup != "" {
				os.Rename(done[i].backup, done[i].dst)
			}
		}
	}
	current := make(map[string]bool, len(files))
	for _, f := range files {
		current[f.Path] = true
		dst := filepath.Join(root, filepath.FromSlash(f.Path))
		if old, err := os.ReadFile(dst); err == nil && bytes.Equal(old, f.Content) {
			continue
		}
		p, err := promoteFile(filepath.Join(stage, filepath.FromSlash(f.Path)), dst, filepath.Join(backups, filepath.FromSlash(f.Path)))
		if err != nil {
			rollback()
			return NewOutputError("promote", f.Path, err)
		}
		done = append(done, p)
	}
	for _, p := range prev.Files {
		if current[p] || ValidatePath(p) != nil {
			continue
		}
		if err := os.Remove(filepath.Join(root, filepath.FromSlash(p))); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewOutputError("remove", p, err)
		}
	}
	m := manifest{Version: manifestVersion, Language: lang.String(), Files: make([]string, 0, len(files))}
	for _, f := range files {
		m.Files = append(m.Files, f.Path)
	}
	return writeManifest(root, lang, m)
}

// promoteFile moves src to dst, first moving an existing dst to backup.
// On error dst is left as it was.
func promoteFile(src, dst, backup string) (promoted, error) {
	p := promoted{dst: dst}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return p, err
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.MkdirAll(filepath.Dir(backup), 0o755); err != nil {
			return p, err
		}
		if err := os.Rename(dst, backup); err != nil {
			return p, err
		}
		p.backup = backup
	}
	if err := os.Rename(src, dst); err != nil {
		if p.backup != "" {
			os.Rename(p.backup, dst)
		}
		return p, err
	}
	return p, nil
}

func readManifest(root string, lang Language) (manifest, error) {
	var m manifest
	b, err := os.ReadFile(filepath.Join(root, ManifestName(lang)))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return m, NewOutputError("manifest", ManifestName(lang), err)
	}
	if err := msgpack.Unmarshal(b, &m); err != nil || m.Version != manifestVersion {
		// An unreadable manifest only disables stale file removal.
		return manifest{}, nil
	}
	return m, nil
}

// writeManifest writes the manifest through a temporary file and a rename.
func writeManifest(root string, lang Language, m manifest) error {
	b, err := msgpack.Marshal(&m)
	if err != nil {
		return NewOutputError("manifest", ManifestName(lang), err)
	}
	tmp, err := os.CreateTemp(root, ".nexusgen-*.tmp")
	if err != nil {
		return NewOutputError("manifest", ManifestName(lang), err)
	}
	_, werr := tmp.Write(b)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return NewOutputError("manifest", ManifestName(lang), err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(root, ManifestName(lang))); err != nil {
		os.Remove(tmp.Name())
		return NewOutputError("manifest", ManifestName(lang), err)
	}
	return nil
}

// CheckPaths verifies that every path is a clean relative path and that
// no two files share one. A duplicate is an internal error: unit names
// are unique by construction.
func CheckPaths(files []File) error {
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if err := ValidatePath(f.Path); err != nil {
			return NewInternalError("invalid output path %q: %v", f.Path, err)
		}
		key := strings.ToLower(f.Path)
		if seen[key] {
			return NewInternalError("two units write %q", f.Path)
		}
		seen[key] = true
	}
	return nil
}

// ValidatePath checks that path is relative, clean and stays inside the
// output root.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("path is empty")
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return errors.New("absolute paths not allowed")
	}
	// Windows drive letters are rejected on every platform.
	if len(path) >= 2 && path[1] == ':' && ((path[0] >= 'A' && path[0] <= 'Z') || (path[0] >= 'a' && path[0] <= 'z')) {
		return errors.New("absolute paths not allowed")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if cleaned := filepath.ToSlash(filepath.Clean(path)); cleaned != path {
		return fmt.Errorf("path is not clean (expected %q)", cleaned)
	}
	return nil
}
