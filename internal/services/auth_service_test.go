package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vigilops/ipsentry/internal/models"
)

func setupAuthService(t *testing.T) *AuthService {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.User{}))

	user := models.User{
		UUID:    "test-uuid",
		Email:   "admin@example.com",
		Name:    "Admin",
		Enabled: true,
	}
	assert.NoError(t, user.SetPassword("correct-horse"))
	assert.NoError(t, db.Create(&user).Error)

	return NewAuthService(db, "test-secret")
}

func TestAuthService_Login(t *testing.T) {
	svc := setupAuthService(t)

	token, err := svc.Login("admin@example.com", "correct-horse")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// LastLogin is stamped.
	var user models.User
	assert.NoError(t, svc.db.Where("email = ?", "admin@example.com").First(&user).Error)
	assert.NotNil(t, user.LastLogin)
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginRejectsDisabledUser(t *testing.T) {
	svc := setupAuthService(t)
	assert.NoError(t, svc.db.Model(&models.User{}).
		Where("email = ?", "admin@example.com").
		Update("enabled", false).Error)

	_, err := svc.Login("admin@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ValidateToken(t *testing.T) {
	svc := setupAuthService(t)

	token, err := svc.Login("admin@example.com", "correct-horse")
	assert.NoError(t, err)

	user, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
}

func TestAuthService_ValidateTokenRejectsGarbage(t *testing.T) {
	svc := setupAuthService(t)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := setupAuthService(t)

	token, err := svc.Login("admin@example.com", "correct-horse")
	assert.NoError(t, err)

	other := NewAuthService(svc.db, "different-secret")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_ValidateTokenRejectsDisabledUser(t *testing.T) {
	svc := setupAuthService(t)

	token, err := svc.Login("admin@example.com", "correct-horse")
	assert.NoError(t, err)

	assert.NoError(t, svc.db.Model(&models.User{}).
		Where("email = ?", "admin@example.com").
		Update("enabled", false).Error)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
