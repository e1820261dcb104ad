package source

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ListFiles returns every regular file under root, ordered by comparing path
// components in turn, so "a/b" sorts before "a-b/c".
// A root that is a file yields just that file.
func ListFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, inputErr("list files", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, inputErr("list files", err)
	}
	SortPaths(paths)
	return paths, nil
}

// SortPaths orders paths component by component.
func SortPaths(paths []string) {
	sep := string(filepath.Separator)
	slices.SortStableFunc(paths, func(a, b string) int {
		return slices.Compare(strings.Split(a, sep), strings.Split(b, sep))
	})
}

// ReadFiles reads paths in order. Files that cannot be read are skipped and
// their errors returned alongside.
func ReadFiles(paths []string) ([]File, []error) {
	files := make([]File, 0, len(paths))
	var skipped []error
	for _, p := range paths {
		f, err := ReadFile(p)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		files = append(files, f)
	}
	return files, skipped
}

// ReadImageDir lists root, reads every file and keeps the images. Unreadable
// files are skipped and reported alongside.
func ReadImageDir(root string) (images []File, skipped []error, err error) {
	paths, err := ListFiles(root)
	if err != nil {
		return nil, nil, err
	}
	files, skipped := ReadFiles(paths)
	images = FilterImages(files)
	if len(images) == 0 {
		return nil, skipped, inputErr("read "+root, ErrNoValidFiles)
	}
	return images, skipped, nil
}
