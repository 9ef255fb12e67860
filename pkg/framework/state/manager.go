// Package state persists module parameters and module-specific data in a
// small little-endian binary format.
package state

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iggylabs/tablesynth/pkg/framework/param"
)

const (
	magic = "TBLSYN"

	// Version is the format version written by Save.
	Version uint32 = 1

	maxParams    = 1 << 16
	maxStringLen = 1 << 16
)

var (
	// ErrInvalidFormat is returned for data that is not a state blob.
	ErrInvalidFormat = errors.New("state: invalid format")
	// ErrVersion is returned for data written by a newer format version.
	ErrVersion = errors.New("state: unsupported version")
)

// SaveFunc writes module data after the parameters.
type SaveFunc func(w io.Writer) error

// LoadFunc parses what the matching SaveFunc wrote without applying it.
// The returned apply func is called once the whole stream has parsed.
type LoadFunc func(r io.Reader) (apply func(), err error)

// Manager handles state saving and loading for one registry.
type Manager struct {
	version    uint32
	registry   *param.Registry
	customSave SaveFunc
	customLoad LoadFunc
}

// NewManager creates a new state manager
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  Version,
		registry: registry,
	}
}

// SetCustomState sets the functions for module data beyond parameters.
func (m *Manager) SetCustomState(save SaveFunc, load LoadFunc) {
	m.customSave = save
	m.customLoad = load
}

// Save writes the state to a writer
func (m *Manager) Save(w io.Writer) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	params := m.registry.All()
	if err := binary.Write(w, binary.LittleEndian, int32(len(params))); err != nil {
		return err
	}
	for _, p := range params {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if m.customSave == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0))
	}
	// Mark that custom data follows
	if err := binary.Write(w, binary.LittleEndian, uint32(1)); err != nil {
		return err
	}
	return m.customSave(w)
}

type savedValue struct {
	ID    uint32
	Value float64
}

// Load reads the state from a reader. Nothing is applied unless the whole
// stream parses, custom section included; unknown IDs are ignored.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrInvalidFormat, err)
	}
	if string(header) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidFormat, header)
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("%w: reading version: %v", ErrInvalidFormat, err)
	}
	if version == 0 || version > m.version {
		return fmt.Errorf("%w: %d, newest supported is %d", ErrVersion, version, m.version)
	}

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return fmt.Errorf("%w: reading parameter count: %v", ErrInvalidFormat, err)
	}
	if paramCount < 0 || paramCount > maxParams {
		return fmt.Errorf("%w: parameter count %d", ErrInvalidFormat, paramCount)
	}

	values := make([]savedValue, paramCount)
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("%w: reading parameters: %v", ErrInvalidFormat, err)
	}

	var hasCustom uint32
	if err := binary.Read(r, binary.LittleEndian, &hasCustom); err != nil {
		return fmt.Errorf("%w: reading custom marker: %v", ErrInvalidFormat, err)
	}

	var apply func()
	if hasCustom != 0 && m.customLoad != nil {
		var err error
		if apply, err = m.customLoad(r); err != nil {
			return err
		}
	}

	for _, v := range values {
		if p := m.registry.Get(v.ID); p != nil {
			p.SetValue(v.Value)
		}
	}
	if apply != nil {
		apply()
	}
	return nil
}

// SaveFile writes the state to path through a temporary file in the same
// directory, so an interrupted save leaves the previous file intact.
func (m *Manager) SaveFile(path string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	w := bufio.NewWriter(f)
	if err = m.Save(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// LoadFile reads state written by SaveFile.
func (m *Manager) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Load(bufio.NewReader(f))
}

// WriteString writes a length-prefixed string for custom state.
func WriteString(w io.Writer, s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("state: string of %d bytes exceeds %d", len(s), maxStringLen)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a string written by WriteString.
func ReadString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: reading string length: %v", ErrInvalidFormat, err)
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string length %d", ErrInvalidFormat, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: reading string: %v", ErrInvalidFormat, err)
	}
	return string(buf), nil
}
