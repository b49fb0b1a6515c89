package targets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/multierr"
)

var (
	// ErrStoreCorrupt means the file exists but its content cannot be trusted.
	ErrStoreCorrupt = errors.New("target store corrupt")
	// ErrStoreUnwritable means the new list could not be persisted.
	ErrStoreUnwritable = errors.New("target store unwritable")
	// ErrDuplicateTarget is returned when adding an address that is already stored.
	ErrDuplicateTarget = errors.New("duplicate target")
	// ErrInvalidTarget is returned for empty or malformed addresses.
	ErrInvalidTarget = errors.New("invalid target")
)

// DefaultFileName is the name of the targets file inside the config directory.
const DefaultFileName = "sites.json"

type document struct {
	Targets []Target `json:"targets"`
}

// Store is a file-backed, ordered list of targets. Every mutation re-reads the
// file and persists synchronously before returning.
type Store struct {
	mu       sync.Mutex
	path     string
	validate *validator.Validate
}

// NewStore returns a store persisted at path.
func NewStore(path string) *Store {
	return &Store{path: path, validate: validator.New()}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted list. A missing file yields an empty list.
func (s *Store) Load() ([]Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save atomically replaces the persisted list.
func (s *Store) Save(list []Target) error {
	if err := s.check(list); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(list)
}

// Add appends a target and persists the list.
func (s *Store) Add(address, label string) (Target, error) {
	target := Target{Address: strings.TrimSpace(address), Label: strings.TrimSpace(label)}
	if target.Label == target.Address {
		target.Label = ""
	}
	if err := s.validate.Struct(target); err != nil {
		return Target{}, fmt.Errorf("%w: %q: %w", ErrInvalidTarget, target.Address, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadForUpdate()
	if err != nil {
		return Target{}, err
	}
	key := target.Key()
	if lo.ContainsBy(current, func(t Target) bool { return t.Key() == key }) {
		return Target{}, fmt.Errorf("%w: %s", ErrDuplicateTarget, target.Address)
	}

	if err := s.save(append(slices.Clone(current), target)); err != nil {
		return Target{}, err
	}
	return target, nil
}

// Remove deletes the entry matching address, reporting whether one existed.
func (s *Store) Remove(address string) (bool, error) {
	key := NormalizeAddress(address)

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadForUpdate()
	if err != nil {
		return false, err
	}
	next := lo.Reject(current, func(t Target, _ int) bool { return t.Key() == key })
	if len(next) == len(current) {
		return false, nil
	}
	if err := s.save(next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) load() ([]Target, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Target{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read target store %s: %w", s.path, err)
	}
	return s.decode(data)
}

// loadForUpdate reads the list a mutation starts from. A file that cannot be
// read at all cannot be replaced either, so those failures are reported as
// ErrStoreUnwritable.
func (s *Store) loadForUpdate() ([]Target, error) {
	list, err := s.load()
	if err != nil && !errors.Is(err, ErrStoreCorrupt) {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnwritable, err)
	}
	return list, err
}

func (s *Store) decode(data []byte) ([]Target, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Target{}, nil
	}

	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStoreCorrupt, s.path, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: %s: trailing data after document", ErrStoreCorrupt, s.path)
	}

	seen := make(map[string]int, len(doc.Targets))
	for i, target := range doc.Targets {
		if err := s.validate.Struct(target); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d (%q): %w", ErrStoreCorrupt, s.path, i, target.Address, err)
		}
		if first, dup := seen[target.Key()]; dup {
			return nil, fmt.Errorf("%w: %s: entry %d duplicates entry %d (%q)", ErrStoreCorrupt, s.path, i, first, target.Address)
		}
		seen[target.Key()] = i
	}
	if doc.Targets == nil {
		return []Target{}, nil
	}
	return doc.Targets, nil
}

func (s *Store) check(list []Target) error {
	seen := make(map[string]struct{}, len(list))
	for _, target := range list {
		if err := s.validate.Struct(target); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidTarget, target.Address, err)
		}
		if _, dup := seen[target.Key()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateTarget, target.Address)
		}
		seen[target.Key()] = struct{}{}
	}
	return nil
}

func (s *Store) save(list []Target) error {
	data, err := encode(list)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnwritable, s.path, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnwritable, s.path, err)
	}
	return nil
}

func encode(list []Target) ([]byte, error) {
	if list == nil {
		list = []Target{}
	}
	data, err := json.MarshalIndent(document{Targets: list}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// writeFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new content.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				err = multierr.Append(err, rmErr)
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(err, tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
