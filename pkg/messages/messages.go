// Package messages centralizes log and API-response message literals so they can
// be reused across the code-base and kept consistent.  Constants are grouped by
// functional area (Server, Upload, Catalog, CLI).
package messages

// Log and API response message constants.
const (
	// Server lifecycle
	MsgServerStarting     = "starting model server"
	MsgServerStopping     = "shutting down model server"
	MsgServerStopped      = "model server stopped"
	MsgStoreRootReady     = "store root ready"
	MsgRequestHandled     = "request handled"
	MsgPanicRecovered     = "recovered from panic"
	MsgTrustedProxiesSet  = "trusted proxies configured"
	ErrServerStartFailed  = "failed to start model server"
	ErrTrustedProxiesBad  = "invalid trusted proxies"
	ErrStoreRootBad       = "failed to prepare store root"
	RespInternalError     = "Internal server error"
	RespRouteNotFound     = "Not found"
	RespMethodNotAllowed  = "Method not allowed"
	ErrParseMultipartForm = "failed to parse multipart form"

	// Upload
	MsgUploadReceived   = "upload received"
	MsgAssetStored      = "asset stored"
	MsgUploadStored     = "model uploaded"
	MsgUploadRejected   = "upload rejected"
	MsgUploadFailed     = "upload failed"
	RespMissingAssets   = "Both GLTF and BIN files are required"
	RespUploadSucceeded = "Files for model %s uploaded successfully"
	ErrStoreModelFiles  = "failed to store model files"
	ErrStoreRecord      = "failed to write model record"
	ErrUploadCancelled  = "upload cancelled"

	// Upload validation
	ErrModelNameRequired = "modelName is required"
	ErrModelNameUnsafe   = "modelName must be a single path segment"
	ErrTooManyGLTF       = "exactly one gltf file is allowed"
	ErrTooManyBin        = "exactly one bin file is allowed"
	ErrTooManyTextures   = "too many texture files, at most %d allowed"
	ErrFileNameUnsafe    = "file name must be a single path segment"
	ErrFileNameReserved  = "file name is reserved inside the model directory"
	ErrFileNameDuplicate = "gltf and bin files must have different names"
	ErrFileTooLarge      = "file %s exceeds the %s size limit"

	// Catalog
	MsgCatalogListed     = "catalog listed"
	MsgSkippingNoRecord  = "skipping model directory without record"
	MsgSkippingCorrupt   = "skipping model with corrupt record"
	MsgSkippingUnread    = "skipping model with unreadable record"
	ErrReadCatalog       = "failed to read model catalog"
	ErrReadModelRecord   = "failed to read model record"
	ErrModelNotFound     = "model %s not found"
	ErrModelRecordBroken = "model %s has a corrupt record"

	// Static asset serving
	MsgServingAsset = "serving asset"
	ErrReadAsset    = "failed to read stored asset"

	// CLI
	MsgNoModels = "no models in store"
)
