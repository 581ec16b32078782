package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// PhoneDigits is the exact number of digits a phone number must have (area code + number).
const PhoneDigits = 11

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var nonDigits = regexp.MustCompile(`\D`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone11", func(fl validator.FieldLevel) bool {
		return len(NormalizePhone(fl.Field().String())) == PhoneDigits
	})
	// max=72 would count runes; bcrypt limits bytes.
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return ValidPasswordLength(fl.Field().String())
	})
	return v
}

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	return validate
}

// Account is a registered user of the dashboard. Email is the unique key and
// namespaces all operational records of the account.
type Account struct {
	Email                 string    `gorm:"primaryKey;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	Name                  string    `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Phone                 string    `gorm:"type:varchar(20);not null" json:"phone" validate:"required,phone11"`
	PasswordHash          string    `gorm:"type:text;not null" json:"-"`
	HasSeenOnboarding     bool      `gorm:"default:false" json:"has_seen_onboarding"`
	HasActiveSubscription bool      `gorm:"default:false" json:"has_active_subscription"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) Validate() error {
	return validate.Struct(a)
}

// NewAccount builds a fresh account with both lifecycle flags unset and the
// password hashed.
func NewAccount(name, email, phone, password string) (*Account, error) {
	a := &Account{
		Name:  strings.TrimSpace(name),
		Email: NormalizeEmail(email),
		Phone: NormalizePhone(phone),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := a.SetPassword(password); err != nil {
		return nil, err
	}
	return a, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (a *Account) CheckPassword(password string) bool {
	return CheckPasswordHash(password, a.PasswordHash)
}

// SetPassword hashes and sets a new password
func (a *Account) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	a.PasswordHash = hashed
	return nil
}

// ValidPasswordLength reports whether bcrypt can hash the password.
func ValidPasswordLength(password string) bool {
	return len(password) <= MaxPasswordBytes
}

// NormalizeEmail lower-cases and trims an email so it can be used as a key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	return nonDigits.ReplaceAllString(phone, "")
}
