package auth

import (
	"context"
	"log"
	"time"

	"github.com/sahilchouksey/learning-center-api/model"
	"github.com/sahilchouksey/learning-center-api/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const revokedKeyPrefix = "jwt:revoked:"

// BlacklistService handles JWT token revocation. Revoked IDs live in the
// database; when Redis is configured they are mirrored there until expiry
// so the per-request check usually skips the database.
type BlacklistService struct {
	db    *gorm.DB
	cache *cache.RedisCache
}

// NewBlacklistService creates a new blacklist service. redisCache may be nil.
func NewBlacklistService(db *gorm.DB, redisCache *cache.RedisCache) *BlacklistService {
	return &BlacklistService{db: db, cache: redisCache}
}

// RevokeToken adds a token ID to the blacklist
func (s *BlacklistService) RevokeToken(ctx context.Context, claims *Claims, reason string) error {
	entry := model.JWTTokenBlacklist{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		Reason:    reason,
		ExpiresAt: ExpiresAt(claims),
	}

	// Revoking twice is harmless
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "jti"}}, DoNothing: true}).
		Create(&entry).Error
	if err != nil {
		return err
	}

	if s.cache != nil {
		if ttl := time.Until(entry.ExpiresAt); ttl > 0 {
			if err := s.cache.Set(ctx, revokedKeyPrefix+entry.JTI, reason, ttl); err != nil {
				log.Printf("Warning: failed to mirror revoked token in Redis: %v", err)
			}
		}
	}
	return nil
}

// IsTokenRevoked checks if a token ID is in the blacklist
func (s *BlacklistService) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if s.cache != nil {
		if found, err := s.cache.Exists(ctx, revokedKeyPrefix+jti); err == nil && found {
			return true, nil
		}
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.JWTTokenBlacklist{}).
		Where("jti = ? AND expires_at > ?", jti, time.Now()).
		Count(&count).
		Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RevokeAllUserTokens increments user's token version to invalidate all tokens
func (s *BlacklistService) RevokeAllUserTokens(ctx context.Context, tx *gorm.DB, userID uint) error {
	if tx == nil {
		tx = s.db
	}
	return tx.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)).
		Error
}

// CleanupExpiredTokens removes expired entries from the blacklist
func (s *BlacklistService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&model.JWTTokenBlacklist{})
	return result.RowsAffected, result.Error
}
