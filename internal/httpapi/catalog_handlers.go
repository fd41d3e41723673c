package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"lexora.org/internal/audit"
	"lexora.org/internal/catalog"
)

type createCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createVideoRequest struct {
	CourseID    string `json:"course_id"`
	Title       string `json:"title"`
	StoragePath string `json:"storage_path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Free        bool   `json:"free"`
	Published   bool   `json:"published"`
}

type enrollRequest struct {
	UserID string `json:"user_id"`
}

func (a *API) handleCoursesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCourses(w, r)
	case http.MethodPost:
		a.createCourse(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCourseResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/courses/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if strings.HasSuffix(path, "/videos") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/videos"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "course not found")
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listCourseVideos(w, r, id)
		return
	}

	if strings.HasSuffix(path, "/enroll") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/enroll"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "course not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.enroll(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getCourse(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleVideosCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.createVideo(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost)
	}
}

func (a *API) handleVideoResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/videos/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	if strings.HasSuffix(path, "/playback") {
		id := strings.TrimSuffix(strings.TrimSuffix(path, "/playback"), "/")
		if id == "" {
			writeError(w, r, http.StatusNotFound, "video not found")
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.mintPlayback(w, r, id)
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getVideo(w, r, path)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.catalog.ListCourses(r.Context())
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if courses == nil {
		courses = []*catalog.Course{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": courses})
}

func (a *API) getCourse(w http.ResponseWriter, r *http.Request, id string) {
	course, err := a.catalog.FindCourse(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (a *API) createCourse(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !principal.IsAdmin() {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req createCourseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, r, http.StatusBadRequest, "title is required")
		return
	}

	course := &catalog.Course{Title: strings.TrimSpace(req.Title), Description: req.Description}
	if err := a.catalog.CreateCourse(r.Context(), course); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, course)
}

func (a *API) listCourseVideos(w http.ResponseWriter, r *http.Request, courseID string) {
	if _, err := a.catalog.FindCourse(r.Context(), courseID); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	videos, err := a.catalog.ListCourseVideos(r.Context(), courseID)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	if videos == nil {
		videos = []*catalog.Video{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": videos})
}

func (a *API) getVideo(w http.ResponseWriter, r *http.Request, id string) {
	video, err := a.catalog.FindVideo(r.Context(), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func (a *API) createVideo(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !principal.IsAdmin() {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req createVideoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.Contains(req.StoragePath, "..") || strings.HasPrefix(req.StoragePath, "/") {
		writeError(w, r, http.StatusBadRequest, "storage_path must be relative")
		return
	}

	video := &catalog.Video{
		CourseID:    req.CourseID,
		Title:       strings.TrimSpace(req.Title),
		StoragePath: req.StoragePath,
		Size:        req.Size,
		ContentType: req.ContentType,
		Free:        req.Free,
		Published:   req.Published,
	}
	if err := a.catalog.CreateVideo(r.Context(), video); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (a *API) enroll(w http.ResponseWriter, r *http.Request, courseID string) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !principal.IsAdmin() {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return
	}

	var req enrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, r, http.StatusBadRequest, "user_id is required")
		return
	}
	if _, err := a.catalog.FindCourse(r.Context(), courseID); err != nil {
		handleCatalogError(w, r, err)
		return
	}

	enrollment := catalog.Enrollment{UserID: req.UserID, CourseID: courseID, Active: true}
	if err := a.catalog.Enroll(r.Context(), enrollment); err != nil {
		if errors.Is(err, catalog.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		handleCatalogError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "catalog.enrollment.granted", map[string]any{
		"course_id":        courseID,
		"enrolled_user_id": req.UserID,
	})
	writeJSON(w, http.StatusCreated, enrollment)
}
