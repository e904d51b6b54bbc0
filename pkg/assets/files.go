// Package assets holds the file-level operations shared by the batch tools: listing
// images, picking collision-free names, moving, compressing and cleaning renders.
package assets

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxSuffix bounds the _N search in NextFreePath.
const maxSuffix = 10000

// IsSupportedExt reports whether name has an image extension the tools read.
func IsSupportedExt(name string) bool {
	// OCR temp files and macOS resource forks
	base := filepath.Base(name)
	if strings.Contains(base, ".ocr.") || strings.HasPrefix(base, "._") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

// ListImages returns image paths under dir, sorted. With recursive=false only the
// top level is read. Paths are relative to dir.
func ListImages(dir string, recursive bool) ([]string, error) {
	var out []string
	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !IsSupportedExt(e.Name()) {
				continue
			}
			out = append(out, e.Name())
		}
		sort.Strings(out)
		return out, nil
	}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSupportedExt(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// NextFreePath returns dir/stem+ext if unused, else the first dir/stem_N+ext (N from 1)
// that does not exist. The check is not atomic with the later write.
func NextFreePath(dir, stem, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	cand := filepath.Join(dir, stem+ext)
	if !exists(cand) {
		return cand, nil
	}
	for n := 1; n <= maxSuffix; n++ {
		cand = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !exists(cand) {
			return cand, nil
		}
	}
	return "", fmt.Errorf("%w: %s%s in %s", ErrNoFreeName, stem, ext, dir)
}

func exists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

// Move renames src to dst, falling back to copy+remove across devices.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	return copyRemove(src, dst)
}

// CopyFile copies src to dst, creating parent dirs. dst is truncated if it exists.
// Copying a file onto itself is a no-op.
func CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if sameFile(src, dst) {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyRemove(src, dst string) error {
	if sameFile(src, dst) {
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// Size returns the file size or 0.
func Size(p string) int64 {
	fi, err := os.Stat(p)
	if err != nil {
		return 0
	}
	return fi.Size()
}
