package httpapi

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"lexora.org/internal/catalog"
	"lexora.org/internal/media"
	"lexora.org/internal/obs"
	"lexora.org/internal/playback"
)

// handleStream serves media for a playback token. Each request stands
// alone: verify the token, resolve the video, hand the byte window to the
// streamer. Browser players hit this many times per viewing session with
// different Range headers; there is no cross-request state.
func (a *API) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, r, http.MethodGet, http.MethodHead)
		return
	}

	token := strings.TrimPrefix(r.URL.Path, "/stream/")
	if token == "" || strings.Contains(token, "/") {
		obs.RecordStreamDenial("bad_path")
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	claims, err := a.playback.Verify(token)
	if err != nil {
		reason := "token_invalid"
		if errors.Is(err, playback.ErrTokenExpired) {
			reason = "token_expired"
		}
		obs.RecordStreamDenial(reason)
		obs.LogRequest(map[string]any{
			"level":      "warn",
			"msg":        "stream_token_rejected",
			"request_id": RequestIDFromContext(r.Context()),
			"reason":     err.Error(),
		})
		// Specific kind stays in the log; the client gets one message.
		writeError(w, r, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	video, err := a.catalog.FindVideo(r.Context(), claims.VideoID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			obs.RecordStreamDenial("video_missing")
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	src, err := a.resolveMedia(video)
	if err != nil {
		obs.RecordStreamDenial("bad_storage_path")
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	obs.StreamStarted()
	defer obs.StreamFinished()

	written, err := a.streamer.Serve(w, r, src)
	obs.AddStreamBytes(written)
	if err != nil {
		level := "error"
		switch {
		case errors.Is(err, media.ErrRangeInvalid), errors.Is(err, media.ErrRangeMulti):
			obs.RecordStreamDenial("bad_range")
			level = "warn"
		case errors.Is(err, media.ErrMediaMissing):
			// Catalog row exists but the file is gone: storage drift.
			obs.RecordStreamDenial("media_missing")
		}
		obs.LogRequest(map[string]any{
			"level":      level,
			"msg":        "stream_failed",
			"request_id": RequestIDFromContext(r.Context()),
			"video_id":   video.ID,
			"user_id":    claims.UserID,
			"range":      r.Header.Get("Range"),
			"error":      err.Error(),
		})
	}
}

// resolveMedia maps a catalog record onto the storage root, refusing
// paths that escape it.
func (a *API) resolveMedia(video *catalog.Video) (media.Source, error) {
	full := filepath.Join(a.mediaRoot, filepath.FromSlash(video.StoragePath))
	rel, err := filepath.Rel(a.mediaRoot, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return media.Source{}, errors.New("storage path escapes media root")
	}
	return media.Source{
		Path:        full,
		Size:        video.Size,
		ContentType: video.ContentType,
	}, nil
}
