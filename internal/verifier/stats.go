// Package verifier compares the mapping files of a release with the previous one.
package verifier

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/pgzip"
)

// FileStat is the size of one mapping file
type FileStat struct {
	Name  string
	Lines int64
	Bytes int64
}

// DirStats measures every .tsv file in dir. Gzipped files (.tsv.gz) are
// measured decompressed and reported under their .tsv name.
func DirStats(dir string) (map[string]FileStat, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	stats := make(map[string]FileStat)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".tsv") && !strings.HasSuffix(name, ".tsv.gz") {
			continue
		}
		st, err := fileStat(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		stats[st.Name] = st
	}
	return stats, nil
}

// Names returns the file names of stats, sorted
func Names(stats map[string]FileStat) []string {
	out := make([]string, 0, len(stats))
	for name := range stats {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func fileStat(path string) (FileStat, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileStat{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var r io.Reader = f
	if strings.HasSuffix(name, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return FileStat{}, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
		name = strings.TrimSuffix(name, ".gz")
	}

	lines, size, err := countLines(r)
	if err != nil {
		return FileStat{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FileStat{Name: name, Lines: lines, Bytes: size}, nil
}

// countLines counts newline-terminated lines plus a trailing unterminated one.
func countLines(r io.Reader) (int64, int64, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 64*1024)
	var lines, size int64
	var last byte
	for {
		n, err := br.Read(buf)
		if n > 0 {
			lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
			size += int64(n)
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, 0, err
		}
	}
	if size > 0 && last != '\n' {
		lines++
	}
	return lines, size, nil
}
