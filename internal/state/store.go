package state

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/moby/sys/atomicwriter"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ports/internal/errors"
)

// codec is strict on input so that schema drift shows up as corruption
// rather than being dropped on the next write.
var codec = jsoniter.Config{
	EscapeHTML:            false,
	SortMapKeys:           true,
	DisallowUnknownFields: true,
}.Froze()

// Store reads and writes the state file at Path.
type Store struct {
	Path string
	Perm fs.FileMode
}

// NewStore returns a Store for the file at path.
func NewStore(path string) *Store {
	return &Store{Path: path, Perm: 0o644}
}

// Read loads the state. A missing file yields an empty state.
func (s *Store) Read() (*State, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errors.StorageError(fmt.Sprintf("failed to read state file %s", s.Path), err)
	}

	return Decode(s.Path, data)
}

// Write persists st atomically.
func (s *Store) Write(st *State) error {
	data, err := Encode(st)
	if err != nil {
		return errors.StorageError("failed to encode state", err)
	}

	if err := atomicwriter.WriteFile(s.Path, data, s.Perm); err != nil {
		return errors.StorageError(fmt.Sprintf("failed to write state file %s", s.Path), err)
	}

	return nil
}

// Decode parses a state file body. name is used in error messages only.
func Decode(name string, data []byte) (*State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, errors.CorruptState(name, fmt.Errorf("empty document"))
	}

	st := New()
	if err := codec.Unmarshal(trimmed, st); err != nil {
		return nil, errors.CorruptState(name, err)
	}
	if st.Allocations == nil {
		st.Allocations = make(map[int]Allocation)
	}

	for base, a := range st.Allocations {
		a.Base = base
		st.Allocations[base] = a
	}

	if err := st.validate(); err != nil {
		return nil, errors.CorruptState(name, err)
	}

	return st, nil
}

// Encode serializes st in the on-disk format.
func Encode(st *State) ([]byte, error) {
	allocs := st.Allocations
	if allocs == nil {
		allocs = map[int]Allocation{}
	}

	data, err := codec.MarshalIndent(&State{NextHint: st.NextHint, Allocations: allocs}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
