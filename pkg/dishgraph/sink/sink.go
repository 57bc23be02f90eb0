// Package sink holds helpers shared by the output writers.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File is one output file and the function that produces its content.
type File struct {
	Path  string
	Write func(w io.Writer) error
}

// WriteAtomic writes to a temp file next to path and renames it into
// place once write succeeds. On error nothing is left at path.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	return WriteAtomicSet([]File{{Path: path, Write: write}})
}

// WriteAtomicSet stages every file as a temp file and renames them into
// place only after all of them were written. If any write fails, no
// target is touched and the temp files are removed.
func WriteAtomicSet(files []File) error {
	tmps := make([]string, 0, len(files))
	for _, f := range files {
		tmp, err := stage(f.Path, f.Write)
		if err != nil {
			for _, t := range tmps {
				os.Remove(t)
			}
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		tmps = append(tmps, tmp)
	}

	for i, f := range files {
		if err := os.Rename(tmps[i], f.Path); err != nil {
			for _, t := range tmps[i:] {
				os.Remove(t)
			}
			return fmt.Errorf("rename %s: %w", f.Path, err)
		}
	}
	return nil
}

// stage writes a temp file next to path and returns its name.
func stage(path string, write func(w io.Writer) error) (tmp string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	tmp = f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = write(bw); err != nil {
		return "", err
	}
	if err = bw.Flush(); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return tmp, nil
}
