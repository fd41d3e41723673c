package catalog

import (
	"context"
	"sync"
	"time"

	"lexora.org/internal/ids"
)

var _ Store = (*InMemory)(nil)

// InMemory is a map-backed Store. It backs tests and single-node demo
// deployments that run without PostgreSQL.
type InMemory struct {
	mu          sync.RWMutex
	courses     map[string]*Course
	videos      map[string]*Video
	enrollments map[string]bool // userID + "\x00" + courseID -> active
	order       []string        // course ids in creation order
}

// NewInMemory creates an empty catalog.
func NewInMemory() *InMemory {
	return &InMemory{
		courses:     make(map[string]*Course),
		videos:      make(map[string]*Video),
		enrollments: make(map[string]bool),
	}
}

func enrollKey(userID, courseID string) string { return userID + "\x00" + courseID }

func (s *InMemory) CreateCourse(ctx context.Context, c *Course) error {
	if c.Title == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	s.courses[c.ID] = &cp
	s.order = append(s.order, c.ID)
	return nil
}

func (s *InMemory) FindCourse(ctx context.Context, id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) ListCourses(ctx context.Context) ([]*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Course, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.courses[id]
		res = append(res, &cp)
	}
	return res, nil
}

func (s *InMemory) CreateVideo(ctx context.Context, v *Video) error {
	if v.CourseID == "" || v.Title == "" || v.StoragePath == "" || v.Size <= 0 {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[v.CourseID]; !ok {
		return ErrNotFound
	}
	if v.ContentType == "" {
		v.ContentType = "video/mp4"
	}
	if v.ID == "" {
		v.ID = ids.New()
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	vp := *v
	s.videos[v.ID] = &vp
	return nil
}

func (s *InMemory) FindVideo(ctx context.Context, id string) (*Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	vp := *v
	return &vp, nil
}

func (s *InMemory) ListCourseVideos(ctx context.Context, courseID string) ([]*Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*Video
	for _, v := range s.videos {
		if v.CourseID == courseID {
			vp := *v
			res = append(res, &vp)
		}
	}
	return res, nil
}

func (s *InMemory) Enroll(ctx context.Context, e Enrollment) error {
	if e.UserID == "" || e.CourseID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[e.CourseID]; !ok {
		return ErrNotFound
	}
	s.enrollments[enrollKey(e.UserID, e.CourseID)] = e.Active
	return nil
}

func (s *InMemory) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enrollments[enrollKey(userID, courseID)], nil
}
