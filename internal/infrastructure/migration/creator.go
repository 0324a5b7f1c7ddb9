package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)
	unsafeChars   = regexp.MustCompile(`[^a-z0-9]+`)
)

// File is one up/down migration pair
type File struct {
	Version  uint64
	Name     string
	UpPath   string
	DownPath string
}

// Create writes the next sequentially numbered migration pair, e.g.
// 000002_add_receive_notes.up.sql and .down.sql.
func Create(dir, name string) (*File, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := List(dir)
	if err != nil {
		return nil, err
	}
	var version uint64 = 1
	if n := len(existing); n > 0 {
		version = existing[n-1].Version + 1
	}

	prefix := filepath.Join(dir, fmt.Sprintf("%06d_%s", version, base))
	f := &File{Version: version, Name: base, UpPath: prefix + ".up.sql", DownPath: prefix + ".down.sql"}

	if err := writeNew(f.UpPath, fmt.Sprintf("-- %s\n\n", name)); err != nil {
		return nil, err
	}
	if err := writeNew(f.DownPath, fmt.Sprintf("-- rollback %s\n\n", name)); err != nil {
		_ = os.Remove(f.UpPath)
		return nil, err
	}
	return f, nil
}

func writeNew(path, content string) error {
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := fh.WriteString(content); err != nil {
		fh.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return fh.Close()
}

// List returns the migrations in dir ordered by version. A missing directory
// has no migrations.
func List(dir string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[uint64]*File)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationFile.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.ParseUint(match[1], 10, 64)
		if err != nil {
			continue
		}
		f, ok := byVersion[version]
		if !ok {
			f = &File{Version: version, Name: match[2]}
			byVersion[version] = f
		}
		path := filepath.Join(dir, entry.Name())
		if match[3] == "up" {
			f.UpPath = path
		} else {
			f.DownPath = path
		}
	}

	files := make([]File, 0, len(byVersion))
	for _, f := range byVersion {
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

func sanitizeName(name string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(name), "_"), "_")
}
