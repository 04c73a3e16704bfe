package server

import (
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/modelshelf/modelshelf/pkg/messages"
)

// Content types browsers and viewers expect for glTF assets.
var assetTypes = map[string]string{
	".gltf": "model/gltf+json",
	".glb":  "model/gltf-binary",
	".bin":  "application/octet-stream",
}

func init() {
	for ext, typ := range assetTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// assetHandler serves stored files byte for byte. Directories are not listed.
func (s *Server) assetHandler() gin.HandlerFunc {
	files := afero.NewHttpFs(s.store.Fs()).Dir(s.store.Root())

	return func(c *gin.Context) {
		name := path.Clean("/" + c.Param("filepath"))

		f, err := files.Open(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": messages.RespRouteNotFound})
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": messages.RespRouteNotFound})
			return
		}

		contentType, err := detectContentType(name, f)
		if err != nil {
			loggerFor(c, s.logger).Error(messages.ErrReadAsset, "path", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": messages.RespInternalError})
			return
		}
		c.Header("Content-Type", contentType)

		loggerFor(c, s.logger).Debug(messages.MsgServingAsset, "path", name, "type", contentType, "size", info.Size())
		http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	}
}

// detectContentType resolves the type from the extension and falls back to
// sniffing the content. f is rewound afterwards.
func detectContentType(name string, f io.ReadSeeker) (string, error) {
	if typ := mime.TypeByExtension(path.Ext(name)); typ != "" {
		return typ, nil
	}

	kind, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return kind.String(), nil
}
