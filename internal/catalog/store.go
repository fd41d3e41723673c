package catalog

import "context"

// Store describes persistence operations for courses, videos and
// enrollments.
type Store interface {
	CreateCourse(ctx context.Context, c *Course) error
	FindCourse(ctx context.Context, id string) (*Course, error)
	ListCourses(ctx context.Context) ([]*Course, error)

	CreateVideo(ctx context.Context, v *Video) error
	FindVideo(ctx context.Context, id string) (*Video, error)
	ListCourseVideos(ctx context.Context, courseID string) ([]*Video, error)

	Enroll(ctx context.Context, e Enrollment) error
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}
