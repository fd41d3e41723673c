package httpapi

import (
	"errors"
	"net/http"
	"time"

	"lexora.org/internal/audit"
	"lexora.org/internal/catalog"
)

type playbackResponse struct {
	Token     string    `json:"token"`
	StreamURL string    `json:"stream_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// mintPlayback issues a playback token for one video after the session
// principal passes the entitlement check. Denial answers 404, the same as
// an unknown id, so probing cannot distinguish "exists but locked" from
// "does not exist".
func (a *API) mintPlayback(w http.ResponseWriter, r *http.Request, videoID string) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	allowed, err := a.entitlements.Check(r.Context(), principal, videoID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "entitlement check failed")
		return
	}
	if !allowed {
		_ = audit.LogEvent(r.Context(), "playback.token.denied", map[string]any{
			"video_id": videoID,
		})
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	token, expiresAt, err := a.playback.Issue(videoID, principal.UserID, a.playback.TTL())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "playback.token.issued", map[string]any{
		"video_id":   videoID,
		"expires_at": expiresAt.Format(time.RFC3339),
	})

	writeJSON(w, http.StatusOK, playbackResponse{
		Token:     token,
		StreamURL: "/stream/" + token,
		ExpiresAt: expiresAt,
	})
}
