package ingest_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelshelf/modelshelf/pkg/domain"
	"github.com/modelshelf/modelshelf/pkg/ingest"
	"github.com/modelshelf/modelshelf/pkg/logging"
	"github.com/modelshelf/modelshelf/pkg/store"
)

const root = "/srv/uploads"

func newIngestor(t *testing.T, opts ingest.Options) (*ingest.Ingestor, *store.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	logger := logging.NewTestLogger()
	st := store.New(fs, root, logger)
	require.NoError(t, st.EnsureRoot())
	return ingest.New(st, opts, logger), st, fs
}

func baseRequest() *ingest.Request {
	return &ingest.Request{
		ModelName: "chair",
		GLTF:      []ingest.File{ingest.FromBytes("chair.gltf", []byte(`{"asset":{"version":"2.0"}}`))},
		Bin:       []ingest.File{ingest.FromBytes("chair.bin", []byte{0, 1, 2, 3})},
	}
}

func requireAppError(t *testing.T, err error, code domain.AppErrorCode) *domain.AppError {
	t.Helper()
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestIngest_MinimalUpload(t *testing.T) {
	ing, st, fs := newIngestor(t, ingest.Options{})

	res, err := ing.Ingest(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, "Files for model chair uploaded successfully", res.Message)
	assert.Equal(t, "chair", res.ModelInfo.Name)
	assert.Equal(t, "chair.gltf", res.ModelInfo.GLTF)
	assert.Equal(t, "chair.bin", res.ModelInfo.Bin)
	assert.Empty(t, res.ModelInfo.Textures)
	assert.Equal(t, domain.DefaultPosition(), res.ModelInfo.Position)
	assert.Equal(t, domain.DefaultScale(), res.ModelInfo.Scale)
	assert.Equal(t, 1, res.ModelInfo.TableNumber)
	assert.Equal(t, "other", res.ModelInfo.Type)
	assert.Equal(t, 0.0, res.ModelInfo.Price)
	assert.Equal(t, "", res.ModelInfo.Description)

	bin, err := afero.ReadFile(fs, filepath.Join(root, "chair", "chair.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, bin)

	texDir, err := afero.DirExists(fs, st.TexturesDir("chair"))
	require.NoError(t, err)
	assert.False(t, texDir, "textures/ is only created when textures are uploaded")

	stored, err := st.ReadRecord("chair")
	require.NoError(t, err)
	assert.Equal(t, res.ModelInfo, stored)
}

func TestIngest_FullMetadataAndTextures(t *testing.T) {
	ing, st, fs := newIngestor(t, ingest.Options{MaxTextures: 4})

	req := baseRequest()
	req.Textures = []ingest.File{
		ingest.FromBytes("wood.png", []byte("\x89PNG\r\n\x1a\nrest")),
		ingest.FromBytes("fabric.jpg", []byte("jpeg")),
	}
	req.Position = `{"x":1.5,"y":0,"z":-2}`
	req.Scale = `{"x":2,"y":2,"z":2}`
	req.TableNumber = "7"
	req.Type = "furniture"
	req.Price = "149.99"
	req.Description = "An office chair"

	res, err := ing.Ingest(context.Background(), req)
	require.NoError(t, err)

	info := res.ModelInfo
	assert.Equal(t, []string{"wood.png", "fabric.jpg"}, info.Textures)
	assert.Equal(t, domain.Vector3{X: 1.5, Y: 0, Z: -2}, info.Position)
	assert.Equal(t, domain.Vector3{X: 2, Y: 2, Z: 2}, info.Scale)
	assert.Equal(t, 7, info.TableNumber)
	assert.Equal(t, "furniture", info.Type)
	assert.InDelta(t, 149.99, info.Price, 1e-9)
	assert.Equal(t, "An office chair", info.Description)

	for _, tex := range info.Textures {
		exists, err := afero.Exists(fs, filepath.Join(st.TexturesDir("chair"), tex))
		require.NoError(t, err)
		assert.True(t, exists, tex)
	}
}

func TestIngest_MetadataParsing(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		price     string
		wantTable int
		wantPrice float64
	}{
		{"empty", "", "", 1, 0},
		{"zero table", "0", "0", 1, 0},
		{"leading digits", "12abc", "9.5 EUR", 12, 9.5},
		{"negative", "-3", "-1.25", -3, -1.25},
		{"garbage", "abc", "free", 1, 0},
		{"leading space", "  4", "  .5", 4, 0.5},
		{"exponent", "2e3", "1e2", 2, 100},
		{"truncated float", "3.9", "12.", 3, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, _, _ := newIngestor(t, ingest.Options{})
			req := baseRequest()
			req.TableNumber = tt.table
			req.Price = tt.price

			res, err := ing.Ingest(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTable, res.ModelInfo.TableNumber)
			assert.InDelta(t, tt.wantPrice, res.ModelInfo.Price, 1e-9)
		})
	}
}

func TestIngest_PartialVectorKeepsDefaults(t *testing.T) {
	ing, _, _ := newIngestor(t, ingest.Options{})
	req := baseRequest()
	req.Position = `{"y":3}`
	req.Scale = `{"z":0.5}`

	res, err := ing.Ingest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, domain.Vector3{X: 0, Y: 3, Z: 0}, res.ModelInfo.Position)
	assert.Equal(t, domain.Vector3{X: 1, Y: 1, Z: 0.5}, res.ModelInfo.Scale)
}

func TestIngest_RejectsBeforeWriting(t *testing.T) {
	tests := []struct {
		name   string
		opts   ingest.Options
		mutate func(*ingest.Request)
		code   domain.AppErrorCode
		status int
	}{
		{
			name:   "missing model name",
			mutate: func(r *ingest.Request) { r.ModelName = "" },
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name:   "traversal model name",
			mutate: func(r *ingest.Request) { r.ModelName = "../escape" },
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing gltf",
			mutate: func(r *ingest.Request) { r.GLTF = nil },
			code:   domain.ErrCodeMissingAssets,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing bin",
			mutate: func(r *ingest.Request) { r.Bin = nil },
			code:   domain.ErrCodeMissingAssets,
			status: http.StatusBadRequest,
		},
		{
			name: "two gltf files",
			mutate: func(r *ingest.Request) {
				r.GLTF = append(r.GLTF, ingest.FromBytes("other.gltf", []byte("{}")))
			},
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name: "too many textures",
			opts: ingest.Options{MaxTextures: 1},
			mutate: func(r *ingest.Request) {
				r.Textures = []ingest.File{
					ingest.FromBytes("a.png", []byte("a")),
					ingest.FromBytes("b.png", []byte("b")),
				}
			},
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name: "unsafe texture name",
			mutate: func(r *ingest.Request) {
				r.Textures = []ingest.File{ingest.FromBytes("../../etc/passwd", []byte("x"))}
			},
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name: "bin named like the record",
			mutate: func(r *ingest.Request) {
				r.Bin = []ingest.File{ingest.FromBytes("info.json", []byte("x"))}
			},
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name: "gltf named like the textures directory",
			mutate: func(r *ingest.Request) {
				r.GLTF = []ingest.File{ingest.FromBytes("textures", []byte("{}"))}
				r.Textures = []ingest.File{ingest.FromBytes("wood.png", []byte("png"))}
			},
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name: "gltf and bin share a name",
			mutate: func(r *ingest.Request) {
				r.Bin = []ingest.File{ingest.FromBytes("chair.gltf", []byte{1})}
			},
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name: "file too large",
			opts: ingest.Options{MaxFileSize: 3},
			mutate: func(r *ingest.Request) {
				r.GLTF = []ingest.File{ingest.FromBytes("chair.gltf", []byte("{}"))}
			},
			code:   domain.ErrCodeRequestTooLarge,
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name:   "malformed position",
			mutate: func(r *ingest.Request) { r.Position = `{"x":` },
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name:   "position not an object",
			mutate: func(r *ingest.Request) { r.Position = `[1,2,3]` },
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
		{
			name:   "non numeric scale",
			mutate: func(r *ingest.Request) { r.Scale = `{"x":"big"}` },
			code:   domain.ErrCodeValidation,
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing, _, fs := newIngestor(t, tt.opts)
			req := baseRequest()
			tt.mutate(req)

			_, err := ing.Ingest(context.Background(), req)
			appErr := requireAppError(t, err, tt.code)
			assert.Equal(t, tt.status, appErr.StatusCode)

			entries, err := afero.ReadDir(fs, root)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing may be written for a rejected upload")
		})
	}
}

func TestIngest_MissingAssetsMessage(t *testing.T) {
	ing, _, _ := newIngestor(t, ingest.Options{})
	req := baseRequest()
	req.Bin = nil

	_, err := ing.Ingest(context.Background(), req)
	appErr := requireAppError(t, err, domain.ErrCodeMissingAssets)
	assert.Equal(t, "Both GLTF and BIN files are required", appErr.Message)
}

func TestIngest_ReservedTexturesNameOnDisk(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewTestLogger()
	st := store.New(afero.NewOsFs(), dir, logger)
	require.NoError(t, st.EnsureRoot())
	ing := ingest.New(st, ingest.Options{}, logger)

	req := baseRequest()
	req.ModelName = "lamp"
	req.GLTF = []ingest.File{ingest.FromBytes("textures", []byte("{}"))}
	req.Textures = []ingest.File{ingest.FromBytes("wood.png", []byte("png"))}

	_, err := ing.Ingest(context.Background(), req)
	appErr := requireAppError(t, err, domain.ErrCodeValidation)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	assert.Equal(t, "file name is reserved inside the model directory", appErr.Message)

	exists, err := st.ModelExists("lamp")
	require.NoError(t, err)
	assert.False(t, exists)

	req.GLTF = []ingest.File{ingest.FromBytes("textures", []byte("{}"))}
	req.Textures = nil
	_, err = ing.Ingest(context.Background(), req)
	requireAppError(t, err, domain.ErrCodeValidation)

	ok := baseRequest()
	ok.ModelName = "lamp"
	ok.Textures = []ingest.File{ingest.FromBytes("wood.png", []byte("png"))}
	res, err := ing.Ingest(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, []string{"wood.png"}, res.ModelInfo.Textures)
}

func TestIngest_ReuploadOverwritesRecordKeepsOrphans(t *testing.T) {
	ing, st, fs := newIngestor(t, ingest.Options{})

	first := baseRequest()
	first.Textures = []ingest.File{ingest.FromBytes("old.png", []byte("old"))}
	first.Price = "10"
	_, err := ing.Ingest(context.Background(), first)
	require.NoError(t, err)

	second := baseRequest()
	second.Price = "20"
	_, err = ing.Ingest(context.Background(), second)
	require.NoError(t, err)

	info, err := st.ReadRecord("chair")
	require.NoError(t, err)
	assert.Equal(t, 20.0, info.Price)
	assert.Empty(t, info.Textures)

	orphan, err := afero.Exists(fs, filepath.Join(st.TexturesDir("chair"), "old.png"))
	require.NoError(t, err)
	assert.True(t, orphan)
}

func TestIngest_ConcurrentSameModel(t *testing.T) {
	ing, st, _ := newIngestor(t, ingest.Options{})

	var wg sync.WaitGroup
	prices := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for _, price := range prices {
		wg.Add(1)
		go func(price string) {
			defer wg.Done()
			req := baseRequest()
			req.Price = price
			_, err := ing.Ingest(context.Background(), req)
			assert.NoError(t, err)
		}(price)
	}
	wg.Wait()

	info, err := st.ReadRecord("chair")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Price, 1.0)
	assert.LessOrEqual(t, info.Price, 8.0)
}

func TestIngest_CancelledContext(t *testing.T) {
	ing, _, fs := newIngestor(t, ingest.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.Ingest(ctx, baseRequest())
	requireAppError(t, err, domain.ErrCodeInternal)
	assert.True(t, errors.Is(err, context.Canceled))

	exists, err := afero.Exists(fs, filepath.Join(root, "chair", "info.json"))
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIngest_OpenFailureIsStorageError(t *testing.T) {
	ing, st, _ := newIngestor(t, ingest.Options{})
	req := baseRequest()
	req.Bin = []ingest.File{{
		Name: "chair.bin",
		Size: 4,
		Open: func() (io.ReadCloser, error) { return nil, errors.New("spool gone") },
	}}

	_, err := ing.Ingest(context.Background(), req)
	appErr := requireAppError(t, err, domain.ErrCodeStorage)
	assert.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	assert.Equal(t, "chair", appErr.ModelName)

	_, err = st.ReadRecord("chair")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestIngest_UnderreportedSizeIsCaughtWhileStreaming(t *testing.T) {
	ing, _, _ := newIngestor(t, ingest.Options{MaxFileSize: 8})
	req := baseRequest()
	req.Bin = []ingest.File{{
		Name: "chair.bin",
		Size: 1,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("much more than eight bytes")), nil
		},
	}}

	_, err := ing.Ingest(context.Background(), req)
	requireAppError(t, err, domain.ErrCodeRequestTooLarge)
}
