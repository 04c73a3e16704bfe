package pkg_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/modelshelf/modelshelf/pkg"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, "uploads", pkg.DefaultStoreRoot)
	assert.Equal(t, 3000, pkg.DefaultPortNum)
	assert.Equal(t, 100, pkg.DefaultMaxTextures)
	assert.Equal(t, 12*time.Hour, pkg.DefaultMaxAge)
}

func TestValueOrDefault(t *testing.T) {
	assert.Equal(t, "custom", pkg.ValueOrDefault("custom", pkg.DefaultStoreRoot))
	assert.Equal(t, "uploads", pkg.ValueOrDefault("", pkg.DefaultStoreRoot))
	assert.Equal(t, 8080, pkg.ValueOrDefault(8080, pkg.DefaultPortNum))
	assert.Equal(t, 3000, pkg.ValueOrDefault(0, pkg.DefaultPortNum))
}
