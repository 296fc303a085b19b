// admin_assets.go handles versioned file uploads. Asset bytes are
// content-addressed in S3 by their SHA-256, so identical uploads share
// an object and version history never collides. Metadata and the
// latest-version pointer live in PostgreSQL.
package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pressroom/internal/imaging"
	"pressroom/internal/middleware"
	"pressroom/internal/models"
	"pressroom/internal/storage"
	"pressroom/internal/store"
)

const (
	// maxUploadSize is the maximum allowed file upload size (50 MB).
	maxUploadSize = 50 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// presignExpiry is how long a presigned URL for private files is valid.
	presignExpiry = 1 * time.Hour
)

// allowedAssetTypes defines MIME types accepted for upload.
var allowedAssetTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"image/svg+xml":   true,
	"application/pdf": true,
}

// upload is one accepted multipart file, fully read and sniffed.
type upload struct {
	data        []byte
	contentType string
	filename    string
	sha256      string
}

// readUpload extracts and validates the multipart file field. On failure
// it writes the error response and returns nil.
func (a *Admin) readUpload(w http.ResponseWriter, r *http.Request) *upload {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "too_large", "file too large, maximum size is 50 MB")
		return nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondFieldErrors(w, []fieldError{{Field: "file", Message: "is required"}})
		return nil
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		respondError(w, http.StatusRequestEntityTooLarge, "too_large", "file too large, maximum size is 50 MB")
		return nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondInternal(w, "upload read failed", err)
		return nil
	}
	if len(data) == 0 {
		respondFieldErrors(w, []fieldError{{Field: "file", Message: "must not be empty"}})
		return nil
	}

	// Sniff the real content type; never trust the client's header.
	contentType := http.DetectContentType(data[:min(len(data), 512)])

	// DetectContentType reports SVGs as XML or plain text.
	if strings.HasSuffix(strings.ToLower(header.Filename), ".svg") &&
		(strings.Contains(contentType, "xml") || strings.Contains(contentType, "text/plain")) {
		contentType = "image/svg+xml"
	}

	if !allowedAssetTypes[contentType] {
		respondFieldErrors(w, []fieldError{{Field: "file", Message: fmt.Sprintf("type %q is not allowed", contentType)}})
		return nil
	}

	sum := sha256.Sum256(data)

	return &upload{
		data:        data,
		contentType: contentType,
		filename:    header.Filename,
		sha256:      hex.EncodeToString(sum[:]),
	}
}

// storeObjects uploads the original and, for supported images, a JPEG
// thumbnail. Both go out in parallel; the version only exists once every
// object it references is durable. Returns the thumbnail key, if any.
func (a *Admin) storeObjects(r *http.Request, bucket string, up *upload) (*string, error) {
	key := storage.ObjectKey(up.sha256)

	var thumb *imaging.Thumb
	if imaging.Supported(up.contentType) {
		t, err := imaging.Thumbnail(up.data, thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "error", err, "key", key)
		} else {
			thumb = t
		}
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return a.storageClient.Upload(ctx, bucket, key, up.contentType,
			bytes.NewReader(up.data), int64(len(up.data)))
	})

	var thumbKey *string
	if thumb != nil {
		tk := storage.ThumbKey(up.sha256)
		thumbKey = &tk
		g.Go(func() error {
			return a.storageClient.Upload(ctx, bucket, tk, thumb.ContentType,
				bytes.NewReader(thumb.Data), int64(len(thumb.Data)))
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return thumbKey, nil
}

// assetURLs builds public URLs for a version. Private assets get their
// URLs from the download endpoint instead.
func (a *Admin) assetURLs(asset *models.Asset, v *models.AssetVersion) (url, thumbURL string) {
	if asset.Visibility != models.AssetPublic {
		return "", ""
	}
	url = a.storageClient.FileURL(v.S3Key)
	if v.ThumbS3Key != nil {
		thumbURL = a.storageClient.FileURL(*v.ThumbS3Key)
	}
	return url, thumbURL
}

// AssetUpload creates a new asset from a multipart upload. The file
// lands as version 1 and the latest pointer starts there.
func (a *Admin) AssetUpload(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
		return
	}

	up := a.readUpload(w, r)
	if up == nil {
		return
	}

	visibility := models.AssetPublic
	if r.FormValue("visibility") == "private" {
		visibility = models.AssetPrivate
	}
	bucket := a.storageClient.BucketFor(string(visibility))

	thumbKey, err := a.storeObjects(r, bucket, up)
	if err != nil {
		respondInternal(w, "asset upload failed", err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	asset := &models.Asset{
		Filename:    up.filename,
		ContentType: up.contentType,
		Visibility:  visibility,
		UploaderID:  sess.UserID,
	}
	version := &models.AssetVersion{
		SHA256:     up.sha256,
		SizeBytes:  int64(len(up.data)),
		Bucket:     bucket,
		S3Key:      storage.ObjectKey(up.sha256),
		ThumbS3Key: thumbKey,
		CreatedBy:  sess.UserID,
	}

	created, v, err := a.assetStore.Create(asset, version)
	if err != nil {
		respondInternal(w, "asset insert failed", err)
		return
	}

	url, thumbURL := a.assetURLs(created, v)
	respondJSON(w, http.StatusCreated, map[string]any{
		"asset":     created,
		"version":   v,
		"url":       url,
		"thumb_url": thumbURL,
	})
}

// AssetList returns asset metadata, newest first.
func (a *Admin) AssetList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 50)
	assets, err := a.assetStore.List(limit, offset)
	if err != nil {
		respondInternal(w, "asset list failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// AssetGet returns one asset with its full version history, newest
// version first.
func (a *Admin) AssetGet(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	asset, err := a.assetStore.FindByID(id)
	if err != nil {
		respondInternal(w, "asset lookup failed", err)
		return
	}
	if asset == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	versions, err := a.assetStore.Versions(asset.ID)
	if err != nil {
		respondInternal(w, "asset versions load failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"asset": asset, "versions": versions})
}

// AssetVersionUpload appends a new version to an existing asset and
// makes it the one served. Older versions stay retrievable.
func (a *Admin) AssetVersionUpload(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	asset, err := a.assetStore.FindByID(id)
	if err != nil {
		respondInternal(w, "asset lookup failed", err)
		return
	}
	if asset == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	up := a.readUpload(w, r)
	if up == nil {
		return
	}

	// New versions keep the asset's visibility; flipping visibility is
	// not supported because old objects would sit in the wrong bucket.
	bucket := a.storageClient.BucketFor(string(asset.Visibility))

	thumbKey, err := a.storeObjects(r, bucket, up)
	if err != nil {
		respondInternal(w, "asset upload failed", err)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())
	version := &models.AssetVersion{
		SHA256:     up.sha256,
		SizeBytes:  int64(len(up.data)),
		Bucket:     bucket,
		S3Key:      storage.ObjectKey(up.sha256),
		ThumbS3Key: thumbKey,
		CreatedBy:  sess.UserID,
	}

	v, err := a.assetStore.AddVersion(asset.ID, up.contentType, version)
	if err != nil {
		respondInternal(w, "asset version insert failed", err)
		return
	}
	if v == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	url, thumbURL := a.assetURLs(asset, v)
	respondJSON(w, http.StatusCreated, map[string]any{
		"version":   v,
		"url":       url,
		"thumb_url": thumbURL,
	})
}

type rollbackRequest struct {
	VersionID string `json:"version_id" validate:"required,uuid"`
}

// AssetRollback re-points the latest pointer at an earlier version.
// Nothing is deleted; rolling forward again stays possible.
func (a *Admin) AssetRollback(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req rollbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	versionID, err := parseUUIDField(w, "version_id", req.VersionID)
	if err != nil {
		return
	}

	v, err := a.assetStore.Rollback(id, versionID)
	if err != nil {
		if errors.Is(err, store.ErrVersionMismatch) {
			respondFieldErrors(w, []fieldError{{Field: "version_id", Message: "does not belong to this asset"}})
			return
		}
		respondInternal(w, "asset rollback failed", err)
		return
	}
	if v == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"version": v})
}

// AssetDownload hands out the current version's bytes: public assets
// redirect to the direct S3 URL, private ones to a time-limited
// presigned URL.
func (a *Admin) AssetDownload(w http.ResponseWriter, r *http.Request) {
	if a.storageClient == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_unavailable", "object storage is not configured")
		return
	}

	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	asset, err := a.assetStore.FindByID(id)
	if err != nil {
		respondInternal(w, "asset lookup failed", err)
		return
	}
	if asset == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	v, err := a.assetStore.LatestVersion(asset.ID)
	if err != nil {
		respondInternal(w, "asset version lookup failed", err)
		return
	}
	if v == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset has no versions")
		return
	}

	if asset.Visibility == models.AssetPublic {
		http.Redirect(w, r, a.storageClient.FileURL(v.S3Key), http.StatusFound)
		return
	}

	presigned, err := a.storageClient.PresignedURL(r.Context(), v.Bucket, v.S3Key, presignExpiry)
	if err != nil {
		respondInternal(w, "presign failed", err)
		return
	}
	http.Redirect(w, r, presigned, http.StatusFound)
}

// AssetDelete removes an asset, all its versions, and their S3 objects.
// Object cleanup is best-effort; the database row is already gone.
func (a *Admin) AssetDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	asset, versions, err := a.assetStore.Delete(id)
	if err != nil {
		respondInternal(w, "asset delete failed", err)
		return
	}
	if asset == nil {
		respondError(w, http.StatusNotFound, "not_found", "asset not found")
		return
	}

	if a.storageClient != nil {
		ctx := r.Context()
		for _, v := range versions {
			if err := a.storageClient.Delete(ctx, v.Bucket, v.S3Key); err != nil {
				slog.Warn("s3 object delete failed", "error", err, "key", v.S3Key)
			}
			if v.ThumbS3Key != nil {
				if err := a.storageClient.Delete(ctx, v.Bucket, *v.ThumbS3Key); err != nil {
					slog.Warn("s3 thumbnail delete failed", "error", err, "key", *v.ThumbS3Key)
				}
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
