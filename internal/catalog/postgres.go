package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lexora.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

// Open connects to PostgreSQL with pool settings tuned for many short
// catalog lookups issued from the streaming path.
func Open(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PGStore{db: db}, nil
}

// NewPGStore wraps an existing connection pool.
func NewPGStore(db *sql.DB) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Close() error { return s.db.Close() }

// DB exposes the underlying pool for readiness probes and sibling stores.
func (s *PGStore) DB() *sql.DB { return s.db }

func (s *PGStore) CreateCourse(ctx context.Context, c *Course) error {
	if c.Title == "" {
		return ErrInvalidInput
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into courses(id, title, description) values($1,$2,$3)`,
		c.ID, c.Title, c.Description,
	)
	return err
}

func (s *PGStore) FindCourse(ctx context.Context, id string) (*Course, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, title, description, created_at, updated_at from courses where id=$1`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PGStore) ListCourses(ctx context.Context) ([]*Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, title, description, created_at, updated_at from courses order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &c)
	}
	return res, rows.Err()
}

func (s *PGStore) CreateVideo(ctx context.Context, v *Video) error {
	if v.CourseID == "" || v.Title == "" || v.StoragePath == "" || v.Size <= 0 {
		return ErrInvalidInput
	}
	if v.ContentType == "" {
		v.ContentType = "video/mp4"
	}
	if v.ID == "" {
		v.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into videos(id, course_id, title, storage_path, size_bytes, content_type, free, published)
		 values($1,$2,$3,$4,$5,$6,$7,$8)`,
		v.ID, v.CourseID, v.Title, v.StoragePath, v.Size, v.ContentType, v.Free, v.Published,
	)
	return err
}

func (s *PGStore) FindVideo(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, course_id, title, storage_path, size_bytes, content_type, free, published, created_at, updated_at
		 from videos where id=$1`, id)
	var v Video
	err := row.Scan(&v.ID, &v.CourseID, &v.Title, &v.StoragePath, &v.Size, &v.ContentType, &v.Free, &v.Published, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *PGStore) ListCourseVideos(ctx context.Context, courseID string) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, course_id, title, storage_path, size_bytes, content_type, free, published, created_at, updated_at
		 from videos where course_id=$1 order by created_at asc`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Video
	for rows.Next() {
		var v Video
		if err := rows.Scan(&v.ID, &v.CourseID, &v.Title, &v.StoragePath, &v.Size, &v.ContentType, &v.Free, &v.Published, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &v)
	}
	return res, rows.Err()
}

func (s *PGStore) Enroll(ctx context.Context, e Enrollment) error {
	if e.UserID == "" || e.CourseID == "" {
		return ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx,
		`insert into enrollments(user_id, course_id, active)
		 values($1,$2,$3)
		 on conflict (user_id, course_id) do update set active = excluded.active`,
		e.UserID, e.CourseID, e.Active,
	)
	return err
}

func (s *PGStore) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var active bool
	err := s.db.QueryRowContext(ctx,
		`select active from enrollments where user_id=$1 and course_id=$2`, userID, courseID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return active, nil
}
