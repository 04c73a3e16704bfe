package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/modelshelf/modelshelf/pkg/domain"
)

// ErrRecordNotFound is returned when a model directory has no metadata record.
var ErrRecordNotFound = errors.New("metadata record not found")

// CorruptRecordError reports a record that exists but cannot be used.
type CorruptRecordError struct {
	Path string
	Err  error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt metadata record %s: %v", e.Path, e.Err)
}

func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

// EncodeRecord renders a record the way it is stored on disk: two-space
// indented JSON.
func EncodeRecord(info domain.ModelInfo) ([]byte, error) {
	return json.MarshalIndent(info, "", "  ")
}

// DecodeRecord parses a stored record and checks its required fields.
func DecodeRecord(data []byte) (domain.ModelInfo, error) {
	var info domain.ModelInfo
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&info); err != nil {
		return domain.ModelInfo{}, err
	}
	if dec.More() {
		return domain.ModelInfo{}, errors.New("trailing data after record")
	}
	if err := info.Validate(); err != nil {
		return domain.ModelInfo{}, err
	}
	return info, nil
}

// WriteRecord persists the record for info.Name. The record is written to a
// hidden temporary file and renamed into place, so readers observe either the
// previous record or the new one.
func (s *Store) WriteRecord(info domain.ModelInfo) error {
	data, err := EncodeRecord(info)
	if err != nil {
		return fmt.Errorf("encode record for %s: %w", info.Name, err)
	}

	target := s.RecordPath(info.Name)
	tmp := filepath.Join(filepath.Dir(target), "."+RecordFileName+".tmp")
	if err := afero.WriteFile(s.fs, tmp, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, target); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	s.logger.Debug("metadata record written", "model", info.Name, "path", target, "bytes", len(data))
	return nil
}

// ReadRecord loads the record of model name. It returns an error wrapping
// ErrRecordNotFound when the record is absent and a *CorruptRecordError when
// it cannot be decoded.
func (s *Store) ReadRecord(name string) (domain.ModelInfo, error) {
	path := s.RecordPath(name)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if IsNotFound(err) {
			return domain.ModelInfo{}, fmt.Errorf("%w: %s", ErrRecordNotFound, path)
		}
		return domain.ModelInfo{}, fmt.Errorf("read %s: %w", path, err)
	}

	info, err := DecodeRecord(data)
	if err != nil {
		return domain.ModelInfo{}, &CorruptRecordError{Path: path, Err: err}
	}
	return info, nil
}
