package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/utils"
)

const (
	minPasswordLength  = 6
	maxPasswordLength  = 72
	maxSignatureLength = 255
	maxAvatarLength    = 512
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// ProfileInput holds optional profile changes; nil fields are left as is.
type ProfileInput struct {
	Signature *string
	AvatarURL *string
}

// UserService manages accounts, credentials and roles.
type UserService struct {
	db         *gorm.DB
	cascade    *Cascade
	adminNames map[string]struct{}
}

// NewUserService creates a UserService. Usernames in adminNames register as
// administrators.
func NewUserService(db *gorm.DB, cascade *Cascade, adminNames []string) *UserService {
	names := make(map[string]struct{}, len(adminNames))
	for _, n := range adminNames {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			names[n] = struct{}{}
		}
	}
	return &UserService{db: db, cascade: cascade, adminNames: names}
}

// Register creates an ordinary account.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	role := models.RoleUser
	if _, ok := s.adminNames[strings.ToLower(strings.TrimSpace(username))]; ok {
		role = models.RoleAdmin
	}
	return s.create(ctx, username, password, role)
}

// CreateUser lets an administrator create an account with any role.
func (s *UserService) CreateUser(ctx context.Context, actor Actor, username, password string, role models.Role) (*models.User, error) {
	if !CanManageUsers(actor) {
		return nil, fmt.Errorf("create user: %w", ErrForbidden)
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrValidationFailed)
	}
	return s.create(ctx, username, password, role)
}

func (s *UserService) create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, fmt.Errorf("username must be 2-32 letters, digits, '-' or '_': %w", ErrValidationFailed)
	}
	if n := utf8.RuneCountInString(password); n < minPasswordLength || n > maxPasswordLength {
		return nil, fmt.Errorf("password must be %d-%d characters: %w", minPasswordLength, maxPasswordLength, ErrValidationFailed)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username_lower = ?", strings.ToLower(username)).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("username %q is taken: %w", username, ErrConflict)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("username %q is taken: %w", username, ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	utils.UsersRegistered.WithLabelValues(string(role)).Inc()
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthenticated)
	}
	return user, nil
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// GetByUsername loads a user by name, ignoring case.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username_lower = ?", strings.ToLower(strings.TrimSpace(username))).
		First(&user).Error
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	return &user, nil
}

// Actor loads the current role of a user. A missing account yields
// ErrUnauthenticated so stale tokens are rejected.
func (s *UserService) Actor(ctx context.Context, id uint) (Actor, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Actor{}, fmt.Errorf("user %d no longer exists: %w", id, ErrUnauthenticated)
		}
		return Actor{}, err
	}
	return Actor{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// List returns one page of users ordered by id.
func (s *UserService) List(ctx context.Context, actor Actor, page, size int) ([]models.User, int64, error) {
	if !CanManageUsers(actor) {
		return nil, 0, fmt.Errorf("list users: %w", ErrForbidden)
	}
	page, size = normalizePage(page, size)
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id ASC").Offset((page - 1) * size).Limit(size).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// UpdateProfile changes the actor's own signature and avatar.
func (s *UserService) UpdateProfile(ctx context.Context, actor Actor, in ProfileInput) (*models.User, error) {
	if actor.Anonymous() {
		return nil, fmt.Errorf("update profile: %w", ErrUnauthenticated)
	}
	user, err := s.Get(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if in.Signature != nil {
		sig := strings.TrimSpace(utils.Sanitize(strings.TrimSpace(*in.Signature)))
		if utf8.RuneCountInString(sig) > maxSignatureLength {
			return nil, fmt.Errorf("signature longer than %d characters: %w", maxSignatureLength, ErrValidationFailed)
		}
		user.Signature = sig
	}
	if in.AvatarURL != nil {
		avatar := strings.TrimSpace(*in.AvatarURL)
		if avatar != "" {
			u, err := url.Parse(avatar)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || len(avatar) > maxAvatarLength {
				return nil, fmt.Errorf("avatar must be an http(s) url: %w", ErrValidationFailed)
			}
		}
		user.AvatarURL = avatar
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangeRole sets the role of another user.
func (s *UserService) ChangeRole(ctx context.Context, actor Actor, targetID uint, role models.Role) (*models.User, error) {
	if !CanChangeRole(actor, targetID) {
		return nil, fmt.Errorf("change role of user %d: %w", targetID, ErrForbidden)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, ErrValidationFailed)
	}
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", role).Error; err != nil {
		return nil, fmt.Errorf("change role of user %d: %w", targetID, err)
	}
	user.Role = role
	return user, nil
}

// UserDeletionReport describes what deleting an account removed. Targets
// lists every thread that lost comments, including the user's own posts.
type UserDeletionReport struct {
	Removed int64           `json:"removed_comments"`
	Targets []models.Target `json:"-"`
}

// Delete removes another user's account with everything they authored.
func (s *UserService) Delete(ctx context.Context, actor Actor, targetID uint) (UserDeletionReport, error) {
	if !CanDeleteUser(actor, targetID) {
		return UserDeletionReport{}, fmt.Errorf("delete user %d: %w", targetID, ErrForbidden)
	}
	if _, err := s.Get(ctx, targetID); err != nil {
		return UserDeletionReport{}, err
	}
	n, targets, err := s.cascade.DeleteUser(ctx, targetID)
	if err != nil {
		return UserDeletionReport{}, err
	}
	utils.CommentsDeleted.WithLabelValues("user").Add(float64(n))
	return UserDeletionReport{Removed: n, Targets: targets}, nil
}
