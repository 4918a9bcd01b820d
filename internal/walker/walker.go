package walker

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FileInfo holds metadata about a discovered document.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// Skipped is a document candidate the walk could not hand to the loader.
type Skipped struct {
	RelPath string
	Err     error
}

// Result is the outcome of one walk. Both lists are sorted by RelPath.
type Result struct {
	Files   []FileInfo
	Skipped []Skipped
}

// maxFileSize is the largest document we'll consider (256 MB).
const maxFileSize = 256 << 20

// IgnoreFile lists directory patterns to skip, one per line. It is read
// when present and never written.
const IgnoreFile = ".docqaignore"

var (
	ErrEmptyFile    = errors.New("empty file")
	ErrFileTooLarge = errors.New("file too large")
)

// defaultIgnores apply when the root has no ignore file.
var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	".idea",
	".vscode",
	".docqa",
	".Trash",
}

// Walk lists the documents under root whose lower-cased extension is in
// exts. Ignored directories, symlinks and Office lock files (~$name.docx)
// are passed over silently; documents that are empty, too large or
// unreadable are reported in Result.Skipped. Walk only reads the tree.
func Walk(root string, exts map[string]bool) (Result, error) {
	var res Result

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return res, err
	}
	ignores, err := loadIgnorePatterns(absRoot)
	if err != nil {
		return res, err
	}

	err = filepath.WalkDir(absRoot, func(p string, d fs.DirEntry, walkErr error) error {
		rel := relative(absRoot, p)
		if walkErr != nil {
			if p == absRoot {
				return walkErr
			}
			res.Skipped = append(res.Skipped, Skipped{RelPath: rel, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if p != absRoot && matchesIgnore(d.Name(), rel, ignores) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 || strings.HasPrefix(d.Name(), "~$") {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
		if !exts[ext] {
			return nil
		}

		info, err := d.Info()
		switch {
		case err != nil:
			res.Skipped = append(res.Skipped, Skipped{RelPath: rel, Err: err})
		case info.Size() == 0:
			res.Skipped = append(res.Skipped, Skipped{RelPath: rel, Err: ErrEmptyFile})
		case info.Size() > maxFileSize:
			res.Skipped = append(res.Skipped, Skipped{RelPath: rel, Err: fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())})
		default:
			res.Files = append(res.Files, FileInfo{Path: p, RelPath: rel, Size: info.Size()})
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	sort.Slice(res.Files, func(i, j int) bool { return res.Files[i].RelPath < res.Files[j].RelPath })
	sort.Slice(res.Skipped, func(i, j int) bool { return res.Skipped[i].RelPath < res.Skipped[j].RelPath })
	return res, nil
}

func relative(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// loadIgnorePatterns reads the ignore file at the walk root, falling back
// to defaultIgnores when it is missing or holds no patterns.
func loadIgnorePatterns(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return defaultIgnores, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IgnoreFile, err)
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", IgnoreFile, err)
	}
	if len(patterns) == 0 {
		return defaultIgnores, nil
	}
	return patterns, nil
}

// matchesIgnore reports whether a directory, given by its base name and
// slash-separated path from the root, matches any pattern. A pattern
// matches the directory name, the path itself or a path beneath it, or as
// a glob against either.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		if name == p || relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
		if ok, _ := path.Match(p, relPath); ok {
			return true
		}
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}
