package targets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Stamp identifies one version of the targets file on disk.
type Stamp struct {
	info fs.FileInfo
}

// Exists reports whether the file was present when the stamp was taken.
func (s Stamp) Exists() bool {
	return s.info != nil
}

// Changed reports whether other describes a different version of the file.
// The store replaces the file by rename, so a new inode counts as a change
// even when size and mtime happen to match.
func (s Stamp) Changed(other Stamp) bool {
	switch {
	case s.info == nil || other.info == nil:
		return s.Exists() != other.Exists()
	case !os.SameFile(s.info, other.info):
		return true
	default:
		return s.info.Size() != other.info.Size() || !s.info.ModTime().Equal(other.info.ModTime())
	}
}

// Stamp returns the current version marker of the backing file. A missing
// file yields a stamp whose Exists is false and no error.
func (s *Store) Stamp() (Stamp, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Stamp{}, nil
	}
	if err != nil {
		return Stamp{}, err
	}
	return Stamp{info: info}, nil
}

// Watch checks the backing file every interval and calls onChange whenever it
// differs from the previous check. It picks up edits made by other processes,
// such as a separate configuration session. Stat failures are skipped until
// the file is readable again. Watch returns ctx.Err() when ctx ends.
func (s *Store) Watch(ctx context.Context, interval time.Duration, onChange func()) error {
	last, err := s.Stamp()
	haveLast := err == nil

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		current, err := s.Stamp()
		if err != nil {
			continue
		}
		if haveLast && last.Changed(current) {
			onChange()
		}
		last, haveLast = current, true
	}
}
