package ingest

import (
	"bytes"
	"io"
	"mime/multipart"

	"github.com/modelshelf/modelshelf/pkg/domain"
)

// Form field and file part names of an upload.
const (
	FieldModelName   = "modelName"
	FieldPosition    = "position"
	FieldScale       = "scale"
	FieldTableNumber = "tableNumber"
	FieldType        = "type"
	FieldPrice       = "price"
	FieldDescription = "description"

	PartGLTF     = "gltf"
	PartBin      = "bin"
	PartTextures = "textures"
)

// File is one received file: its client-supplied name, its size, and a way to
// read its content.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FromFileHeader adapts a multipart file part.
func FromFileHeader(fh *multipart.FileHeader) File {
	return File{
		Name: fh.Filename,
		Size: fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// FromBytes wraps in-memory content.
func FromBytes(name string, content []byte) File {
	return File{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// Request is an upload: the files per category plus the raw form values.
// Empty form values mean "absent".
type Request struct {
	ModelName string

	GLTF     []File
	Bin      []File
	Textures []File

	Position    string
	Scale       string
	TableNumber string
	Type        string
	Price       string
	Description string
}

// Result is returned on a successful ingestion.
type Result struct {
	Message   string           `json:"message"`
	ModelInfo domain.ModelInfo `json:"modelInfo"`
}
