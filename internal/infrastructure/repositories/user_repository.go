package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/moodsvc/domain"
)

// UserRepositoryImpl implements domain.UserRepository using GORM
type UserRepositoryImpl struct {
	db *gorm.DB
}

// DBUser represents the database model for User (with GORM tags)
type DBUser struct {
	ID                   uint   `gorm:"primaryKey"`
	Name                 string `gorm:"size:255"`
	Email                string `gorm:"uniqueIndex;size:255"`
	Phone                string `gorm:"index;size:32"`
	PasswordHash         string `gorm:"column:password"`
	Role                 string `gorm:"index;size:64"`
	IsVerified           bool   `gorm:"index"`
	VerifyToken          string `gorm:"size:64"`
	VerifyTokenExpiresAt time.Time
	ResetToken           string `gorm:"size:64"`
	ResetTokenExpiresAt  time.Time
	PhoneVerified        bool
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (DBUser) TableName() string {
	return "users"
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create implements domain.UserRepository
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	dbUser := r.domainToDB(user)
	if err := r.db.WithContext(ctx).Create(dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrUserAlreadyExists
		}
		return err
	}
	user.ID = dbUser.ID
	return nil
}

// FindByEmail implements domain.UserRepository
func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByPhone implements domain.UserRepository
func (r *UserRepositoryImpl) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// FindByID implements domain.UserRepository
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var dbUser DBUser
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dbUser).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.dbToDomain(&dbUser), nil
}

// Update implements domain.UserRepository. Only mutable columns are
// written; a map keeps zero values (false, "") from being skipped.
func (r *UserRepositoryImpl) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"name":                    user.Name,
			"phone":                   user.Phone,
			"password":                user.PasswordHash,
			"role":                    user.Role,
			"is_verified":             user.IsVerified,
			"verify_token":            user.VerifyToken,
			"verify_token_expires_at": user.VerifyTokenExpiresAt,
			"reset_token":             user.ResetToken,
			"reset_token_expires_at":  user.ResetTokenExpiresAt,
			"phone_verified":          user.PhoneVerified,
		}).Error
}

// ActivatePhone implements domain.UserRepository
func (r *UserRepositoryImpl) ActivatePhone(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&DBUser{}).Where("id = ?", userID).Update("phone_verified", true).Error
}

// ConsumeVerifyToken implements domain.UserRepository. The conditional
// UPDATE is the compare-and-swap that makes token consumption single-use:
// two concurrent requests race on the same row and only one can match the
// still-set token.
func (r *UserRepositoryImpl) ConsumeVerifyToken(ctx context.Context, email, token string) (*domain.User, error) {
	res := r.db.WithContext(ctx).Model(&DBUser{}).
		Where("email = ? AND verify_token = ? AND verify_token <> '' AND verify_token_expires_at > ?",
			email, token, time.Now()).
		Updates(map[string]interface{}{
			"is_verified":             true,
			"verify_token":            "",
			"verify_token_expires_at": time.Time{},
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrVerifyTokenInvalid
	}
	return r.FindByEmail(ctx, email)
}

// ConsumeResetToken implements domain.UserRepository with the same
// compare-and-swap shape as ConsumeVerifyToken.
func (r *UserRepositoryImpl) ConsumeResetToken(ctx context.Context, email, token, passwordHash string) (*domain.User, error) {
	res := r.db.WithContext(ctx).Model(&DBUser{}).
		Where("email = ? AND reset_token = ? AND reset_token <> '' AND reset_token_expires_at > ?",
			email, token, time.Now()).
		Updates(map[string]interface{}{
			"password":               passwordHash,
			"reset_token":            "",
			"reset_token_expires_at": time.Time{},
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrResetTokenInvalid
	}
	return r.FindByEmail(ctx, email)
}

// domainToDB converts domain user to database user
func (r *UserRepositoryImpl) domainToDB(user *domain.User) *DBUser {
	return &DBUser{
		ID:                   user.ID,
		Name:                 user.Name,
		Email:                user.Email,
		Phone:                user.Phone,
		PasswordHash:         user.PasswordHash,
		Role:                 user.Role,
		IsVerified:           user.IsVerified,
		VerifyToken:          user.VerifyToken,
		VerifyTokenExpiresAt: user.VerifyTokenExpiresAt,
		ResetToken:           user.ResetToken,
		ResetTokenExpiresAt:  user.ResetTokenExpiresAt,
		PhoneVerified:        user.PhoneVerified,
	}
}

// dbToDomain converts database user to domain user
func (r *UserRepositoryImpl) dbToDomain(dbUser *DBUser) *domain.User {
	return &domain.User{
		ID:                   dbUser.ID,
		Name:                 dbUser.Name,
		Email:                dbUser.Email,
		Phone:                dbUser.Phone,
		PasswordHash:         dbUser.PasswordHash,
		Role:                 dbUser.Role,
		IsVerified:           dbUser.IsVerified,
		VerifyToken:          dbUser.VerifyToken,
		VerifyTokenExpiresAt: dbUser.VerifyTokenExpiresAt,
		ResetToken:           dbUser.ResetToken,
		ResetTokenExpiresAt:  dbUser.ResetTokenExpiresAt,
		PhoneVerified:        dbUser.PhoneVerified,
		CreatedAt:            dbUser.CreatedAt,
		UpdatedAt:            dbUser.UpdatedAt,
	}
}
