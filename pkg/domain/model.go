// Package domain defines the catalog record and error types shared by the
// ingestion and catalog components.
package domain

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultTableNumber is the table a model is placed on when none is given.
	DefaultTableNumber = 1
	// DefaultType is the category tag for untagged models.
	DefaultType = "other"
)

// Vector3 is an x/y/z float triple used for placement and scale.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DefaultPosition returns the origin.
func DefaultPosition() Vector3 {
	return Vector3{X: 0, Y: 0, Z: 0}
}

// DefaultScale returns the identity scale.
func DefaultScale() Vector3 {
	return Vector3{X: 1, Y: 1, Z: 1}
}

// ModelInfo is the metadata record persisted next to a model's files. It is
// the single source of truth for the model's catalog entry.
type ModelInfo struct {
	Name        string   `json:"name"`
	GLTF        string   `json:"gltf"`
	Bin         string   `json:"bin"`
	Textures    []string `json:"textures"`
	Position    Vector3  `json:"position"`
	Scale       Vector3  `json:"scale"`
	TableNumber int      `json:"tableNumber"`
	Type        string   `json:"type"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
}

// NewModelInfo returns a record for name with every optional field at its default.
func NewModelInfo(name string) ModelInfo {
	return ModelInfo{
		Name:        name,
		Textures:    []string{},
		Position:    DefaultPosition(),
		Scale:       DefaultScale(),
		TableNumber: DefaultTableNumber,
		Type:        DefaultType,
	}
}

// MarshalJSON keeps textures rendered as an array even when unset.
func (m ModelInfo) MarshalJSON() ([]byte, error) {
	type plain ModelInfo
	if m.Textures == nil {
		m.Textures = []string{}
	}
	return json.Marshal(plain(m))
}

// UnmarshalJSON decodes a record over the defaults, so keys absent from older
// or hand-written records keep their default values.
func (m *ModelInfo) UnmarshalJSON(data []byte) error {
	type plain ModelInfo
	decoded := plain(NewModelInfo(""))
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.Textures == nil {
		decoded.Textures = []string{}
	}
	*m = ModelInfo(decoded)
	return nil
}

// Validate checks the fields a record cannot exist without.
func (m ModelInfo) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("record has no %q", "name")
	case m.GLTF == "":
		return fmt.Errorf("record has no %q", "gltf")
	case m.Bin == "":
		return fmt.Errorf("record has no %q", "bin")
	}
	return nil
}
