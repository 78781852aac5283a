package service

import (
	"context"
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
	"github.com/sakif/blog-api/internal/view"
)

// ProfilePatch is a partial profile update. nil fields are left alone.
type ProfilePatch struct {
	Username *string
	Bio      *string
	Image    *string
}

// ProfileService manages public profiles and the follow graph.
type ProfileService struct {
	users   repository.UserRepository
	follows repository.FollowRepository
	logger  zerolog.Logger
	now     clock
}

func NewProfileService(users repository.UserRepository, follows repository.FollowRepository, logger zerolog.Logger) *ProfileService {
	return &ProfileService{
		users:   users,
		follows: follows,
		logger:  logger.With().Str("component", "profile_service").Logger(),
		now:     systemClock,
	}
}

func (s *ProfileService) Get(ctx context.Context, username, viewerID string) (*view.Profile, error) {
	user, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	following, err := s.IsFollowing(ctx, viewerID, user.ID)
	if err != nil {
		return nil, err
	}
	profile := view.NewProfile(user, following)
	return &profile, nil
}

// Update applies patch to the user's profile and returns the stored user.
func (s *ProfileService) Update(ctx context.Context, userID string, patch ProfilePatch) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed, err := s.apply(ctx, user, patch)
	if err != nil {
		return nil, err
	}
	if !changed {
		return user, nil
	}

	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/profile: updating %s: %w", userID, err)
	}
	s.logger.Info().Str("userID", user.ID).Str("username", user.Username).Msg("profile updated")
	return user, nil
}

// apply validates patch and copies the changed fields onto user without
// writing anything. It reports whether any field changed.
func (s *ProfileService) apply(ctx context.Context, user *model.User, patch ProfilePatch) (bool, error) {
	var username, bio, image string
	if patch.Username != nil {
		username = normalizeUsername(*patch.Username)
	}
	if patch.Bio != nil {
		bio = *patch.Bio
	}
	if patch.Image != nil {
		image = *patch.Image
	}

	err := validation.Errors{
		"username": validation.Validate(username, validation.When(patch.Username != nil, usernameRules...)),
		"bio":      validation.Validate(bio, bioRules...),
		"image":    validation.Validate(image, imageRules...),
	}.Filter()
	if err := invalid(err); err != nil {
		return false, err
	}

	changed := false
	if patch.Username != nil && username != user.Username {
		taken, err := s.usernameTaken(ctx, username, user.ID)
		if err != nil {
			return false, err
		}
		if taken {
			return false, apperror.Conflict("username", username)
		}
		user.Username = username
		changed = true
	}
	if patch.Bio != nil && bio != user.Bio {
		user.Bio = bio
		changed = true
	}
	if patch.Image != nil && image != user.Image {
		user.Image = image
		changed = true
	}
	return changed, nil
}

// usernameTaken reports whether another user already has username.
func (s *ProfileService) usernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	other, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/profile: checking username: %w", err)
	}
	return other.ID != exceptID, nil
}

func (s *ProfileService) Follow(ctx context.Context, followerID, username string) (*view.Profile, error) {
	target, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == followerID {
		return nil, apperror.ConflictMessage("Cannot follow yourself")
	}

	added, err := s.follows.Follow(ctx, followerID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: following %s: %w", target.Username, err)
	}
	if !added {
		return nil, apperror.ConflictMessage("Already following this user")
	}

	s.logger.Info().Str("followerID", followerID).Str("followedID", target.ID).Msg("user followed")
	profile := view.NewProfile(target, true)
	return &profile, nil
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID, username string) (*view.Profile, error) {
	target, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	removed, err := s.follows.Unfollow(ctx, followerID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("service/profile: unfollowing %s: %w", target.Username, err)
	}
	if !removed {
		return nil, apperror.ConflictMessage("Not following this user")
	}

	s.logger.Info().Str("followerID", followerID).Str("followedID", target.ID).Msg("user unfollowed")
	profile := view.NewProfile(target, false)
	return &profile, nil
}

// IsFollowing is false for an anonymous follower.
func (s *ProfileService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	if followerID == "" {
		return false, nil
	}
	following, err := s.follows.IsFollowing(ctx, followerID, followedID)
	if err != nil {
		return false, fmt.Errorf("service/profile: checking follow: %w", err)
	}
	return following, nil
}

func (s *ProfileService) byUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.GetUserByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFound("profile", username)
	}
	return user, err
}
