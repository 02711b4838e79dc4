package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// DirMode is the permission mode for directories created under [ConfigDir]
// and [CacheDir].
const DirMode os.FileMode = 0o700

// prefixRules rewrite the executable name, without leading dots and
// extension, into the directory prefix.
//
//nolint:gochecknoglobals
var prefixRules = []struct {
	re  *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`^__debug_bin\d*$`), Name}, // dlv output
}

// Prefix returns the base name of the running executable, without extension,
// after the substitutions in prefixRules. It names the configuration and
// cache directories.
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string { return prefixOf(executable()) })

func executable() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}

	return os.Args[0]
}

func prefixOf(path string) string {
	id := strings.TrimLeft(filepath.Base(path), ".")
	id = strings.TrimSuffix(id, filepath.Ext(id))

	for _, r := range prefixRules {
		id = r.re.ReplaceAllString(id, r.rep)
	}

	if id == "" {
		return Name
	}

	return id
}

// userDir returns the directory from base, or from $HOME/fallback, or from
// the working directory, joined with [Prefix].
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigDir returns the configuration directory path.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the cache directory path used for transient files such as
// the REPL history and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// ConfigPath joins elem onto [ConfigDir].
func ConfigPath(elem ...string) string {
	return filepath.Join(append([]string{ConfigDir()}, elem...)...)
}

// CachePath joins elem onto [CacheDir].
func CachePath(elem ...string) string {
	return filepath.Join(append([]string{CacheDir()}, elem...)...)
}

// MkdirAll creates [ConfigDir] and [CacheDir] if they do not exist.
func MkdirAll() error {
	for _, dir := range []string{ConfigDir(), CacheDir()} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return MakeError(err).Wrapf("create %s", dir)
		}
	}

	return nil
}
