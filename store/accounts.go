package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
)

// accountRecord is the gorm mapping of an account row. The unique index
// on email makes the insert the atomicity point for duplicate signups.
type accountRecord struct {
	ID            string `gorm:"primaryKey;size:36"`
	Email         string `gorm:"uniqueIndex;size:255;not null"`
	FirstName     string `gorm:"size:100"`
	LastName      string `gorm:"size:100"`
	PasswordHash  string `gorm:"not null"`
	EmailVerified bool   `gorm:"not null"`
	TOTPSecret    string `gorm:"column:totp_secret"`
	TOTPEnabled   bool   `gorm:"column:totp_enabled;not null"`
	Role          string `gorm:"size:16;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (accountRecord) TableName() string { return "accounts" }

// OpenSQLite opens the account database. TranslateError is required so
// unique-constraint violations surface as gorm.ErrDuplicatedKey.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// Accounts implements rentauth.AccountStore on a gorm database.
type Accounts struct {
	db *gorm.DB
}

// NewAccounts migrates the schema and returns the store.
func NewAccounts(db *gorm.DB) (*Accounts, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	if err := db.AutoMigrate(&accountRecord{}); err != nil {
		return nil, fmt.Errorf("migrate accounts: %w", err)
	}
	return &Accounts{db: db}, nil
}

func (s *Accounts) Create(ctx context.Context, account *rentauth.Account) error {
	record := toRecord(account)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return rentauth.ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	account.CreatedAt = record.CreatedAt
	account.UpdatedAt = record.UpdatedAt
	return nil
}

func (s *Accounts) FindByEmail(ctx context.Context, email string) (*rentauth.Account, error) {
	var record accountRecord
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rentauth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return fromRecord(&record), nil
}

func (s *Accounts) FindByID(ctx context.Context, id string) (*rentauth.Account, error) {
	var record accountRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rentauth.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return fromRecord(&record), nil
}

func (s *Accounts) MarkEmailVerified(ctx context.Context, id string) error {
	return s.update(ctx, id, map[string]interface{}{
		"email_verified": true,
	})
}

func (s *Accounts) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.update(ctx, id, map[string]interface{}{
		"password_hash": hash,
	})
}

func (s *Accounts) SetTOTPSecret(ctx context.Context, id, secret string) error {
	return s.update(ctx, id, map[string]interface{}{
		"totp_secret": secret,
	})
}

func (s *Accounts) EnableTOTP(ctx context.Context, id string) error {
	return s.update(ctx, id, map[string]interface{}{
		"totp_enabled": true,
	})
}

// ClearTOTP removes the secret and the enabled flag in a single UPDATE so
// no interleaving can observe an enabled account without a secret.
func (s *Accounts) ClearTOTP(ctx context.Context, id string) error {
	return s.update(ctx, id, map[string]interface{}{
		"totp_secret":  "",
		"totp_enabled": false,
	})
}

func (s *Accounts) update(ctx context.Context, id string, fields map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&accountRecord{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return rentauth.ErrAccountNotFound
	}
	return nil
}

func toRecord(account *rentauth.Account) accountRecord {
	return accountRecord{
		ID:            account.ID,
		Email:         account.Email,
		FirstName:     account.FirstName,
		LastName:      account.LastName,
		PasswordHash:  account.PasswordHash,
		EmailVerified: account.EmailVerified,
		TOTPSecret:    account.TOTPSecret,
		TOTPEnabled:   account.TOTPEnabled,
		Role:          account.Role,
	}
}

func fromRecord(record *accountRecord) *rentauth.Account {
	return &rentauth.Account{
		ID:            record.ID,
		Email:         record.Email,
		FirstName:     record.FirstName,
		LastName:      record.LastName,
		PasswordHash:  record.PasswordHash,
		EmailVerified: record.EmailVerified,
		TOTPSecret:    record.TOTPSecret,
		TOTPEnabled:   record.TOTPEnabled,
		Role:          record.Role,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
}
