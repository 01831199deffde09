package repository

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"catalog-service/internal/importer"
	"catalog-service/internal/models"
)

// UsersRepository handles user accounts. The import engine uses it to mint
// reviewer accounts for review authors it has not seen before.
type UsersRepository struct {
	db *gorm.DB
}

var _ importer.UserStore = (*UsersRepository)(nil)

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// FindByEmails looks up users by email in one query. Emails are matched
// lowercase; the engine normalizes them the same way before calling.
func (r *UsersRepository) FindByEmails(ctx context.Context, tenantID string, emails []string) ([]importer.UserRef, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email IN ?", tenantID, emails).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	refs := make([]importer.UserRef, 0, len(users))
	for _, user := range users {
		refs = append(refs, importer.UserRef{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		})
	}
	return refs, nil
}

// CreateReviewer creates a user account for an imported review author. The
// account gets a random credential; the reviewer resets it through the normal
// password flow if they ever sign in.
func (r *UsersRepository) CreateReviewer(ctx context.Context, tenantID, name, email string) (importer.UserRef, error) {
	credential, err := generateSecureToken(24)
	if err != nil {
		return importer.UserRef{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return importer.UserRef{}, err
	}

	user := &models.User{
		TenantID:     tenantID,
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Imported:     true,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return importer.UserRef{}, err
	}

	return importer.UserRef{ID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// GetByEmail retrieves a single user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, tenantID string, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", tenantID, strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// generateSecureToken creates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}
