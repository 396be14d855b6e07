package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/sahilchouksey/learning-center-api/database"
	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/services/storage"
	"github.com/sahilchouksey/learning-center-api/utils/apperror"
	"github.com/sahilchouksey/learning-center-api/utils/auth"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials  = errors.New("invalid login or password")
	ErrAccountBlocked      = errors.New("account is blocked")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

const logoPrefix = "learning-centers/logos"

// AuthService registers learning centers and manages sessions
type AuthService struct {
	db        *gorm.DB
	uow       database.UnitOfWork
	jwt       *auth.JWTManager
	blacklist *auth.BlacklistService
	storage   storage.ObjectStorage
}

// NewAuthService creates a new auth service. objectStorage may be nil, in
// which case logo uploads are rejected.
func NewAuthService(db *gorm.DB, uow database.UnitOfWork, jwt *auth.JWTManager, blacklist *auth.BlacklistService, objectStorage storage.ObjectStorage) *AuthService {
	return &AuthService{
		db:        db,
		uow:       uow,
		jwt:       jwt,
		blacklist: blacklist,
		storage:   objectStorage,
	}
}

// RegisterInput creates a learning center together with its owner account
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Login    string
	Password string
	Logo     *Upload
}

// UpdateProfileInput changes the caller's account and learning center
type UpdateProfileInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Logo    *Upload
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	User   *model.User     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates the learning center and its owner in one unit of work
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.checkUnique(ctx, s.db, in.Login, in.Email, in.Phone, 0, 0); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.InvalidArgument("weak_password", err.Error())
	}

	var logoKey, logoURL string
	if in.Logo != nil {
		if logoKey, logoURL, err = s.uploadLogo(ctx, in.Logo); err != nil {
			return nil, err
		}
	}

	user := &model.User{
		Login:        in.Login,
		Email:        &in.Email,
		PasswordHash: passwordHash,
		Name:         in.Name,
		Role:         model.RoleLearningCenter,
	}
	err = s.uow.Do(ctx, func(tx *gorm.DB) error {
		center := &model.LearningCenter{
			Name:     in.Name,
			Email:    in.Email,
			Phone:    in.Phone,
			Address:  in.Address,
			Image:    logoURL,
			ImageKey: logoKey,
		}
		if err := tx.Create(center).Error; err != nil {
			return apperror.FromDB(err, "learning_center")
		}
		user.LearningCenterID = &center.ID
		if err := tx.Create(user).Error; err != nil {
			return apperror.FromDB(err, "user")
		}
		user.LearningCenter = center
		return nil
	})
	if err != nil {
		s.discardLogo(logoKey)
		return nil, err
	}

	log.Printf("Registered learning center %d (%s) with owner %s", *user.LearningCenterID, in.Name, user.Login)
	return s.issue(user)
}

// Login authenticates by login or email
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)

	var user model.User
	err := s.db.WithContext(ctx).Preload("LearningCenter").
		Where("login = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.FromDB(err, "user")
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if isBlocked(&user) {
		return nil, ErrAccountBlocked
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			s.db.WithContext(ctx).Model(&user).Update("password_hash", hash)
		}
	}

	return s.issue(&user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := s.blacklist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if revoked {
		return nil, ErrInvalidRefreshToken
	}

	var user model.User
	if err := s.db.WithContext(ctx).Preload("LearningCenter").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperror.FromDB(err, "user")
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidRefreshToken
	}
	if isBlocked(&user) {
		return nil, ErrAccountBlocked
	}

	if err := s.blacklist.RevokeToken(ctx, claims, "refresh_rotation"); err != nil {
		return nil, apperror.Internal(fmt.Errorf("revoke refresh token: %w", err))
	}
	return s.issue(&user)
}

// Logout revokes the access token and, when given, the refresh token of the
// same user
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, refreshToken string) error {
	if err := s.blacklist.RevokeToken(ctx, access, "logout"); err != nil {
		return apperror.Internal(fmt.Errorf("revoke access token: %w", err))
	}
	if refreshToken == "" {
		return nil
	}
	refresh, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil || refresh.UserID != access.UserID {
		return nil
	}
	if err := s.blacklist.RevokeToken(ctx, refresh, "logout"); err != nil {
		return apperror.Internal(fmt.Errorf("revoke refresh token: %w", err))
	}
	return nil
}

// ChangePassword replaces the password and invalidates every token issued so far
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) (*AuthResult, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("LearningCenter").First(&user, userID).Error; err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	if err := auth.VerifyPassword(user.PasswordHash, oldPassword); err != nil {
		return nil, ErrInvalidCredentials
	}
	if oldPassword == newPassword {
		return nil, apperror.InvalidArgument("same_password", "new password must differ from the current one")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, apperror.InvalidArgument("weak_password", err.Error())
	}

	err = s.uow.Do(ctx, func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password_hash", hash).Error; err != nil {
			return err
		}
		return s.blacklist.RevokeAllUserTokens(ctx, tx, user.ID)
	})
	if err != nil {
		return nil, err
	}

	user.TokenVersion++
	return s.issue(&user)
}

// Profile returns the account with its learning center
func (s *AuthService) Profile(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("LearningCenter").First(&user, userID).Error; err != nil {
		return nil, apperror.FromDB(err, "user")
	}
	return &user, nil
}

// UpdateProfile updates the account and, for center owners, the learning
// center. A new logo replaces the old object in storage.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*model.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var login, email, phone string
	if in.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if in.Phone != nil {
		phone = *in.Phone
	}
	if err := s.checkUnique(ctx, s.db, login, email, phone, user.ID, user.CenterID()); err != nil {
		return nil, err
	}

	var newKey, newURL, oldKey string
	if in.Logo != nil {
		if user.LearningCenter == nil {
			return nil, apperror.InvalidArgument("no_learning_center", "only learning center accounts have a logo")
		}
		if newKey, newURL, err = s.uploadLogo(ctx, in.Logo); err != nil {
			return nil, err
		}
		oldKey = user.LearningCenter.ImageKey
	}

	err = s.uow.Do(ctx, func(tx *gorm.DB) error {
		userUpdates := map[string]interface{}{}
		if in.Name != nil {
			userUpdates["name"] = *in.Name
		}
		if in.Email != nil {
			userUpdates["email"] = email
		}
		if len(userUpdates) > 0 {
			if err := tx.Model(user).Updates(userUpdates).Error; err != nil {
				return apperror.FromDB(err, "user")
			}
		}

		if user.LearningCenter == nil {
			return nil
		}
		centerUpdates := map[string]interface{}{}
		if in.Name != nil {
			centerUpdates["name"] = *in.Name
		}
		if in.Email != nil {
			centerUpdates["email"] = email
		}
		if in.Phone != nil {
			centerUpdates["phone"] = phone
		}
		if in.Address != nil {
			centerUpdates["address"] = *in.Address
		}
		if newKey != "" {
			centerUpdates["image"] = newURL
			centerUpdates["image_key"] = newKey
		}
		if len(centerUpdates) == 0 {
			return nil
		}
		return apperror.FromDB(tx.Model(user.LearningCenter).Updates(centerUpdates).Error, "learning_center")
	})
	if err != nil {
		s.discardLogo(newKey)
		return nil, err
	}

	s.discardLogo(oldKey)
	return s.Profile(ctx, userID)
}

// checkUnique rejects a login, email or phone already used by another
// account or learning center. Empty values are not checked.
func (s *AuthService) checkUnique(ctx context.Context, db *gorm.DB, login, email, phone string, exceptUserID, exceptCenterID uint) error {
	exists := func(m interface{}, column, value string, exceptID uint) (bool, error) {
		var n int64
		q := db.WithContext(ctx).Model(m).Where(column+" = ?", value)
		if exceptID != 0 {
			q = q.Where("id <> ?", exceptID)
		}
		err := q.Count(&n).Error
		return n > 0, err
	}

	checks := []struct {
		model    interface{}
		column   string
		value    string
		exceptID uint
		resource string
	}{
		{&model.User{}, "login", login, exceptUserID, "login"},
		{&model.User{}, "email", email, exceptUserID, "email"},
		{&model.LearningCenter{}, "email", email, exceptCenterID, "email"},
		{&model.LearningCenter{}, "phone", phone, exceptCenterID, "phone"},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		taken, err := exists(c.model, c.column, c.value, c.exceptID)
		if err != nil {
			return apperror.FromDB(err, c.resource)
		}
		if taken {
			return apperror.Conflict(c.resource, apperror.ReasonDuplicate, fmt.Sprintf("%s is already in use", c.resource))
		}
	}
	return nil
}

func (s *AuthService) uploadLogo(ctx context.Context, logo *Upload) (string, string, error) {
	if s.storage == nil {
		return "", "", apperror.InvalidArgument("storage_disabled", "logo uploads are not enabled")
	}
	key, url, err := s.storage.UploadImage(ctx, logoPrefix, logo.Filename, logo.Data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return "", "", apperror.InvalidArgument("invalid_image", err.Error())
		}
		return "", "", apperror.Internal(err)
	}
	return key, url, nil
}

func (s *AuthService) discardLogo(key string) {
	if key == "" || s.storage == nil {
		return
	}
	if err := s.storage.Delete(context.Background(), key); err != nil {
		log.Printf("Warning: failed to delete logo %s: %v", key, err)
	}
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	id := auth.Identity{
		UserID:           user.ID,
		Login:            user.Login,
		Role:             user.Role,
		LearningCenterID: user.CenterID(),
		TokenVersion:     user.TokenVersion,
	}
	if user.TeacherID != nil {
		id.TeacherID = *user.TeacherID
	}
	tokens, err := s.jwt.GenerateTokenPair(id)
	if err != nil {
		return nil, apperror.Internal(fmt.Errorf("generate tokens: %w", err))
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

func isBlocked(user *model.User) bool {
	return user.IsBlocked || (user.LearningCenter != nil && user.LearningCenter.IsBlocked)
}
