package store

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyName is returned for an empty model or file name.
	ErrEmptyName = errors.New("name is empty")
	// ErrUnsafeName is returned for names that would escape their directory.
	ErrUnsafeName = errors.New("name must be a single path segment")
	// ErrReservedName is returned for asset files that would collide with the
	// record or the textures subdirectory.
	ErrReservedName = errors.New("name is reserved inside the model directory")
)

// CheckSegment verifies name can be joined onto a directory without leaving
// it: no separators of either platform, no NUL, not "." or "..".
func CheckSegment(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if name == "." || name == ".." {
		return ErrUnsafeName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrUnsafeName
	}
	return nil
}

// CheckModelName verifies a model name is usable as a directory name.
func CheckModelName(name string) error {
	return CheckSegment(name)
}

// CheckAssetName verifies the name of a file stored at the model directory
// root. The record file name and the textures directory are reserved there.
func CheckAssetName(name string) error {
	if err := CheckSegment(name); err != nil {
		return err
	}
	switch name {
	case RecordFileName, "." + RecordFileName + ".tmp", TexturesDirName:
		return ErrReservedName
	}
	return nil
}

// CheckTextureName verifies the name of a file stored under textures/.
func CheckTextureName(name string) error {
	return CheckSegment(name)
}
