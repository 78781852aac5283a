package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
	"github.com/sakif/blog-api/internal/view"
)

// badCredentials is shared by every login failure so the response does not
// reveal whether the email exists.
const badCredentials = "invalid email or password"

// UserPatch is a partial update of the signed-in user. nil fields are left
// alone.
type UserPatch struct {
	Email    *string
	Password *string
	Username *string
	Bio      *string
	Image    *string
}

// UserService handles accounts: registration, password and GitHub login, and
// the signed-in user's own record.
//
//	UserHandler (HTTP) → UserService → UserRepository (DB)
//	                                 ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Every successful call returns a view.User carrying a freshly issued token.
type UserService struct {
	users     repository.UserRepository
	profiles  *ProfileService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    zerolog.Logger
	now       clock
}

func NewUserService(
	users repository.UserRepository,
	profiles *ProfileService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		profiles:  profiles,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger.With().Str("component", "user_service").Logger(),
		now:       systemClock,
	}
}

// Register creates a password account. Username and email are stored
// lower-cased and must both be unused.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*view.User, error) {
	username = normalizeUsername(username)
	email = normalizeEmail(email)

	err := validation.Errors{
		"username": validation.Validate(username, usernameRules...),
		"email":    validation.Validate(email, required, is.EmailFormat.Error("is invalid")),
		"password": validation.Validate(password, passwordRules...),
	}.Filter()
	if err := invalid(err); err != nil {
		return nil, err
	}

	if taken, err := s.profiles.usernameTaken(ctx, username, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, apperror.Conflict("username", username)
	}
	if taken, err := s.emailTaken(ctx, email, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, apperror.Conflict("email", email)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/user: %w", err)
	}

	now := s.now()
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating %s: %w", username, err)
	}

	s.logger.Info().Str("userID", user.ID).Str("username", user.Username).Msg("user registered")
	return s.withToken(user)
}

// Login checks an email/password pair. Unknown email and wrong password give
// the same Unauthorized error.
func (s *UserService) Login(ctx context.Context, email, password string) (*view.User, error) {
	email = normalizeEmail(email)

	err := validation.Errors{
		"email":    validation.Validate(email, required),
		"password": validation.Validate(password, required),
	}.Filter()
	if err := invalid(err); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized(badCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("service/user: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info().Str("userID", user.ID).Msg("login rejected")
			return nil, apperror.Unauthorized(badCredentials)
		}
		return nil, fmt.Errorf("service/user: verifying password: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Msg("user logged in")
	return s.withToken(user)
}

// Current returns the signed-in user. A token whose user no longer exists is
// treated as unauthenticated.
func (s *UserService) Current(ctx context.Context, userID string) (*view.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching %s: %w", userID, err)
	}
	return s.withToken(user)
}

// Update changes the signed-in user's account. Profile fields follow the
// ProfileService rules; every field is validated before anything is written
// and all changes land in one write.
func (s *UserService) Update(ctx context.Context, userID string, patch UserPatch) (*view.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching %s: %w", userID, err)
	}

	var email, password string
	if patch.Email != nil {
		email = normalizeEmail(*patch.Email)
	}
	if patch.Password != nil {
		password = *patch.Password
	}
	err = validation.Errors{
		"email":    validation.Validate(email, validation.When(patch.Email != nil, required, is.EmailFormat.Error("is invalid"))),
		"password": validation.Validate(password, validation.When(patch.Password != nil, passwordRules...)),
	}.Filter()
	if err := invalid(err); err != nil {
		return nil, err
	}

	changed, err := s.profiles.apply(ctx, user, ProfilePatch{
		Username: patch.Username,
		Bio:      patch.Bio,
		Image:    patch.Image,
	})
	if err != nil {
		return nil, err
	}

	if patch.Email != nil && email != user.Email {
		taken, err := s.emailTaken(ctx, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperror.Conflict("email", email)
		}
		user.Email = email
		changed = true
	}
	if patch.Password != nil {
		hash, err := s.passwords.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("service/user: %w", err)
		}
		user.PasswordHash = hash
		changed = true
	}

	if changed {
		user.UpdatedAt = s.now()
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service/user: updating %s: %w", userID, err)
		}
		s.logger.Info().Str("userID", user.ID).Msg("user updated")
	}
	return s.withToken(user)
}

// LoginGitHub signs in the owner of a GitHub account, creating a local
// account on first login.
//
// The GitHub numeric id is the link between the two accounts. An existing
// local account with the same email is never taken over: the email could be
// unverified on GitHub's side. A new account gets a username derived from
// the GitHub login (suffixed -1, -2, ... when taken) and GitHub's noreply
// address when the email is missing or already in use. GitHub-only accounts
// have no password and cannot use password login.
func (s *UserService) LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*view.User, error) {
	if gh == nil {
		return nil, fmt.Errorf("service/user: GitHub user must not be nil")
	}

	user, err := s.users.GetUserByGitHubID(ctx, gh.ID)
	switch {
	case err == nil:
		if gh.AvatarURL != "" && gh.AvatarURL != user.Image {
			user.Image = gh.AvatarURL
			user.UpdatedAt = s.now()
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, fmt.Errorf("service/user: refreshing GitHub user %d: %w", gh.ID, err)
			}
		}
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createGitHubUser(ctx, gh)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service/user: looking up GitHub user %d: %w", gh.ID, err)
	}

	s.logger.Info().
		Str("userID", user.ID).
		Str("username", user.Username).
		Int64("githubID", gh.ID).
		Msg("user authenticated via GitHub")
	return s.withToken(user)
}

func (s *UserService) createGitHubUser(ctx context.Context, gh *auth.GitHubUser) (*model.User, error) {
	username, err := s.freeUsername(ctx, githubUsername(gh.Login))
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(gh.Email)
	if email != "" {
		taken, err := s.emailTaken(ctx, email, "")
		if err != nil {
			return nil, err
		}
		if taken {
			email = ""
		}
	}
	if email == "" {
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", gh.ID, strings.ToLower(gh.Login))
	}

	githubID := gh.ID
	now := s.now()
	user := &model.User{
		Username:  username,
		Email:     email,
		Bio:       gh.Bio,
		Image:     gh.AvatarURL,
		GitHubID:  &githubID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating GitHub user %d: %w", gh.ID, err)
	}
	s.logger.Info().Str("userID", user.ID).Int64("githubID", gh.ID).Msg("user registered via GitHub")
	return user, nil
}

// githubUsername turns a GitHub login into a valid local username. GitHub
// logins are already letters, digits and single hyphens; only very short
// ones need padding.
func githubUsername(login string) string {
	name := normalizeUsername(login)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	name = strings.Trim(b.String(), "-_")
	if name == "" {
		name = "github"
	}
	if len(name) < 3 {
		name += "-gh"
	}
	if len(name) > 240 {
		name = strings.TrimRight(name[:240], "-_")
	}
	return name
}

// freeUsername returns base, or base-1, base-2, ... whichever is unused.
func (s *UserService) freeUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.profiles.usernameTaken(ctx, candidate, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// emailTaken reports whether another user already has email.
func (s *UserService) emailTaken(ctx context.Context, email, exceptID string) (bool, error) {
	other, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("service/user: checking email: %w", err)
	}
	return other.ID != exceptID, nil
}

func (s *UserService) withToken(user *model.User) (*view.User, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: generating token for %s: %w", user.ID, err)
	}
	result := view.NewUser(user, token)
	return &result, nil
}
