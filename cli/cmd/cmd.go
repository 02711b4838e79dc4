package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/ardnew/typeline/lang"
	"github.com/ardnew/typeline/pkg"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Streams are the standard streams of a command.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type streamsKey struct{}

// WithStreams returns a new context.Context whose commands use s instead of
// the process's standard streams. Nil members keep their default.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// stdinName names the stdin source in diagnostics.
const stdinName = "<stdin>"

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// readSources reads the named files in order. Files named more than once,
// through any path, are read once. All occurrences of "-" and any path
// naming the stdin file are replaced by a single stdin source placed last.
// No paths at all means stdin.
func readSources(ctx context.Context, paths []string) ([]lang.Source, error) {
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	in := streamsFrom(ctx).In
	seen := make(map[fileKey]struct{})

	var stdinKey *fileKey

	if f, ok := in.(*os.File); ok {
		if info, err := f.Stat(); err == nil {
			if key, ok := makeFileKey(info); ok {
				stdinKey = &key
			}
		}
	}

	var (
		srcs     []lang.Source
		hasStdin bool
	)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if path == stdinSource {
			hasStdin = true

			continue
		}

		key, ok, err := uniqueFile(path, seen)
		if err != nil {
			return nil, pkg.ErrReadFile.Wrap(err)
		}

		if !ok {
			continue
		}

		if stdinKey != nil && key == *stdinKey {
			hasStdin = true

			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, pkg.ErrReadFile.Wrap(err)
		}

		srcs = append(srcs, lang.Source{Name: path, Text: string(data)})
	}

	if hasStdin {
		ra := readahead.NewReader(in)
		defer ra.Close()

		data, err := io.ReadAll(ra)
		if err != nil {
			return nil, pkg.ErrReadStdin.Wrap(err)
		}

		srcs = append(srcs, lang.Source{Name: stdinName, Text: string(data)})
	}

	return srcs, nil
}

// uniqueFile resolves path and reports whether it names a file not already
// in seen, adding it if so.
func uniqueFile(path string, seen map[fileKey]struct{}) (fileKey, bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false, err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false, err
	}

	key, ok := makeFileKey(info)
	if !ok {
		// Without an inode, fall back to treating every path as distinct.
		return fileKey{}, true, nil
	}

	if _, exists := seen[key]; exists {
		return key, false, nil
	}

	seen[key] = struct{}{}

	return key, true, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert // Dev is int32 on some platforms
}
