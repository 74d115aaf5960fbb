package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ivevents/ivevents/internal/models"
	apperrors "github.com/ivevents/ivevents/pkg/errors"
)

// UserService is the identity store: user rows looked up or created by a
// stable external identifier (normalized email or OAuth subject).
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService with the supplied database.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, fmt.Errorf("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// NormalizeEmail lowercases and trims an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByID loads a user by primary key.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: find user: %w", err)
	}
	return &user, nil
}

// FindOrCreateByEmail resolves a user by normalized email, creating the
// row on first login. A provided full name updates the stored one.
func (s *UserService) FindOrCreateByEmail(ctx context.Context, email, fullName string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	fullName = strings.TrimSpace(fullName)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Email: email, FullName: fullName}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("user service: create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("user service: find user by email: %w", err)
	default:
		if fullName != "" && user.FullName != fullName {
			if err := s.db.WithContext(ctx).Model(&user).Update("full_name", fullName).Error; err != nil {
				return nil, fmt.Errorf("user service: update full name: %w", err)
			}
			user.FullName = fullName
		}
	}

	return &user, nil
}

// FindOrCreateByGoogleSubject resolves a user arriving via the Google
// login flow. Lookup order: subject first, then normalized email (the
// subject is attached to an existing email-keyed row), then create.
func (s *UserService) FindOrCreateByGoogleSubject(ctx context.Context, subject, email, fullName string) (*models.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("user service: google subject is required")
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	fullName = strings.TrimSpace(fullName)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "google_subject = ?", subject).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user service: find user by subject: %w", err)
	}

	err = s.db.WithContext(ctx).Take(&user, "email = ?", email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Email: email, FullName: fullName, GoogleSubject: &subject}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("user service: create user: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("user service: find user by email: %w", err)
	default:
		updates := map[string]any{"google_subject": subject}
		if fullName != "" && user.FullName != fullName {
			updates["full_name"] = fullName
			user.FullName = fullName
		}
		if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("user service: attach google subject: %w", err)
		}
		user.GoogleSubject = &subject
	}

	return &user, nil
}

// TouchLastLogin records a successful login on the user row.
func (s *UserService) TouchLastLogin(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	if err != nil {
		return fmt.Errorf("user service: touch last login: %w", err)
	}
	return nil
}

// Delete removes a user and everything it owns. Deletion policy:
// deleting a user deletes all owned sessions, event participations, and
// preferences; events the user created survive with a NULL creator.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
			return fmt.Errorf("user service: delete sessions: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.EventParticipant{}).Error; err != nil {
			return fmt.Errorf("user service: delete participations: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserPreference{}).Error; err != nil {
			return fmt.Errorf("user service: delete preferences: %w", err)
		}
		if err := tx.Model(&models.Event{}).
			Where("created_by_user_id = ?", userID).
			Update("created_by_user_id", nil).Error; err != nil {
			return fmt.Errorf("user service: detach created events: %w", err)
		}

		result := tx.Delete(&models.User{}, "id = ?", userID)
		if result.Error != nil {
			return fmt.Errorf("user service: delete user: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}
