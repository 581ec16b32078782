package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

// gormBackend keeps accounts and account_records in a SQL database.
type gormBackend struct {
	db *gorm.DB
}

// NewGormStore creates a RecordStore backed by GORM.
func NewGormStore(db *gorm.DB) RecordStore {
	return newRecordStore(&gormBackend{db: db})
}

func (r *gormBackend) createAccount(ctx context.Context, account *models.Account) error {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(account)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateAccount
		}
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrDuplicateAccount
	}
	return nil
}

func (r *gormBackend) getAccount(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *gormBackend) updateAccount(ctx context.Context, account *models.Account) error {
	tx := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", account.Email).
		Updates(map[string]interface{}{
			"name":                    account.Name,
			"phone":                   account.Phone,
			"password_hash":           account.PasswordHash,
			"has_seen_onboarding":     account.HasSeenOnboarding,
			"has_active_subscription": account.HasActiveSubscription,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// MySQL reports 0 affected rows when nothing changed, so check existence.
		if _, err := r.getAccount(ctx, account.Email); err != nil {
			return err
		}
	}
	return nil
}

func (r *gormBackend) load(ctx context.Context, key RecordKey) ([]byte, error) {
	var rec models.AccountRecord
	err := r.db.WithContext(ctx).
		Where("account_email = ? AND kind = ?", key.Account, key.Kind).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Payload), nil
}

func (r *gormBackend) store(ctx context.Context, key RecordKey, payload []byte) error {
	rec := &models.AccountRecord{
		AccountEmail: key.Account,
		Kind:         key.Kind,
		Payload:      datatypes.JSON(payload),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "account_email"},
			{Name: "kind"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"payload",
			"updated_at",
		}),
	}).Create(rec).Error
}

func (r *gormBackend) remove(ctx context.Context, keys ...RecordKey) error {
	if len(keys) == 0 {
		return nil
	}
	account := keys[0].Account
	kinds := make([]models.RecordKind, 0, len(keys))
	for _, k := range keys {
		if k.Account != account {
			return errors.New("remove spans more than one account")
		}
		kinds = append(kinds, k.Kind)
	}
	return r.db.WithContext(ctx).
		Where("account_email = ? AND kind IN ?", account, kinds).
		Delete(&models.AccountRecord{}).Error
}
