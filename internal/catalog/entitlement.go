package catalog

import (
	"context"
	"fmt"

	"lexora.org/internal/auth"
)

// EntitlementChecker decides whether a principal may view a video. It is a
// pure read over catalog state; denial and "video does not exist" are kept
// distinct so the HTTP layer owns the existence-leak policy.
type EntitlementChecker struct {
	store Store
}

func NewEntitlementChecker(store Store) *EntitlementChecker {
	return &EntitlementChecker{store: store}
}

// Check returns true when the principal is entitled to the video. First
// match wins: admin role, free video, active enrollment in the video's
// course. An unknown video id surfaces ErrNotFound.
func (c *EntitlementChecker) Check(ctx context.Context, principal auth.Principal, videoID string) (bool, error) {
	video, err := c.store.FindVideo(ctx, videoID)
	if err != nil {
		return false, err
	}
	return c.CheckVideo(ctx, principal, video)
}

// CheckVideo is Check for an already-resolved record, so callers that have
// just looked the video up do not pay a second query.
func (c *EntitlementChecker) CheckVideo(ctx context.Context, principal auth.Principal, video *Video) (bool, error) {
	if video == nil {
		return false, ErrNotFound
	}
	if principal.IsAdmin() {
		return true, nil
	}
	if !video.Published {
		return false, nil
	}
	if video.Free {
		return true, nil
	}
	if principal.UserID == "" {
		return false, nil
	}
	enrolled, err := c.store.IsEnrolled(ctx, principal.UserID, video.CourseID)
	if err != nil {
		return false, fmt.Errorf("enrollment lookup: %w", err)
	}
	return enrolled, nil
}
