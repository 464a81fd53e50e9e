// Package access answers the yes/no question at the heart of the platform:
// may this staff member perform this action on this resource kind. The
// answer is resolved from the union of the grants held directly and the
// grants inherited through group membership.
package access

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/brandforge/backoffice/internal/grants"
)

// GrantSource is the slice of the grant store the resolver reads.
type GrantSource interface {
	ListBySubject(ctx context.Context, kind grants.SubjectKind, subjectID int64) ([]grants.Grant, error)
	ListInheritedByStaff(ctx context.Context, staffID int64) ([]grants.Grant, error)
}

// Service resolves effective access for staff members.
type Service struct {
	source GrantSource
	group  singleflight.Group
}

// NewService constructs an access resolver.
func NewService(source GrantSource) *Service {
	return &Service{source: source}
}

// CanAccess reports whether the staff member holds any grant, direct or
// inherited, matching the (resource, action) pair. A staff member with no
// grants at all can do nothing. Root bypass is the caller's concern; this
// resolver only consults grants. Concurrent checks for the same staff
// member share one grant fetch.
func (s *Service) CanAccess(ctx context.Context, staffID int64, resource, action string) (bool, error) {
	held, err := s.effective(ctx, staffID)
	if err != nil {
		return false, err
	}
	for _, g := range held {
		if g.Matches(resource, action) {
			return true, nil
		}
	}
	return false, nil
}

// Effective returns every active grant visible to the staff member, direct
// grants first, then those inherited through groups.
func (s *Service) Effective(ctx context.Context, staffID int64) ([]grants.Grant, error) {
	return s.effective(ctx, staffID)
}

func (s *Service) effective(ctx context.Context, staffID int64) ([]grants.Grant, error) {
	resultChan := s.group.DoChan(fmt.Sprintf("staff:%d", staffID), func() (any, error) {
		return s.fetch(ctx, staffID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]grants.Grant), nil
	}
}

func (s *Service) fetch(ctx context.Context, staffID int64) ([]grants.Grant, error) {
	var direct, inherited []grants.Grant
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		direct, err = s.source.ListBySubject(egCtx, grants.SubjectStaff, staffID)
		return err
	})
	eg.Go(func() error {
		var err error
		inherited, err = s.source.ListInheritedByStaff(egCtx, staffID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return append(direct, inherited...), nil
}
