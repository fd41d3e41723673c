package catalog

import "time"

// Course groups videos into a subject taught on the platform.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Video describes one stored lesson. StoragePath and Size are written by
// the upload pipeline; this subsystem only reads them.
type Video struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	StoragePath string    `json:"-"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Free        bool      `json:"free"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
