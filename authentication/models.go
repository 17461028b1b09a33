package authentication

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gsarmaonline/swapmart/core"
)

type (
	// UserType classifies accounts (e.g. "User", "Seller")
	UserType struct {
		core.BaseModel

		Name string `json:"name" gorm:"not null"`
	}

	User struct {
		core.BaseModel

		Email    string `json:"email" gorm:"uniqueIndex;not null"`
		Password string `json:"-" gorm:"not null"` // bcrypt hash

		// set through SetPassword, hashed into Password on save
		plainPassword string

		FirstName        string `json:"first_name"`
		LastName         string `json:"last_name"`
		BirthDate        string `json:"birth_date"`
		Gender           string `json:"gender"`
		PhoneNumber      string `json:"phone_number"`
		CoverPhotoPath   string `json:"cover_photo_path"`
		ProfileImagePath string `json:"profile_image_path"`
		Bio              string `json:"bio"`
		City             string `json:"city"`
		Address          string `json:"address"`
		Country          string `json:"country"`
		State            string `json:"state"`
		Street           string `json:"street"`
		ZipCode          string `json:"zip_code"`

		IsFirstLogin     bool       `json:"is_first_login" gorm:"default:true"`
		IsEmailConfirmed bool       `json:"is_email_confirmed"`
		IsProfileChanged bool       `json:"is_profile_changed"`
		IsActive         bool       `json:"is_active" gorm:"default:true"`
		IsStaff          bool       `json:"is_staff"`
		IsSuperuser      bool       `json:"is_superuser"`
		VerificationCode string     `json:"-" gorm:"size:10"`
		LastLogin        *time.Time `json:"last_login"`

		UserTypeID string    `json:"user_type" gorm:"type:varchar(36);not null;index"`
		UserType   *UserType `json:"-" gorm:"constraint:OnDelete:CASCADE"`

		ProfileImageURL string `json:"profile_image_url,omitempty" gorm:"-"`
		CoverPhotoURL   string `json:"cover_photo_url,omitempty" gorm:"-"`
	}

	Session struct {
		core.BaseModel

		UserID    string `json:"user_id" gorm:"type:varchar(36);not null;index"`
		User      *User  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
		Token     string `json:"token" gorm:"uniqueIndex;not null"`
		SecretKey []byte `json:"-" gorm:"-"`

		ExpiresAt  time.Time `json:"expires_at"`
		LastUsedAt  time.Time `json:"last_used_at"`
		LastUsedIP  string    `json:"last_used_ip"`
		LastUsedLoc string    `json:"last_used_loc"`
		UserAgent   string    `json:"user_agent"`
	}

	// Client describes where a session was used from
	Client struct {
		IP        string
		Location  string
		UserAgent string
	}
)

// NormalizeEmail lower-cases the domain part and keeps the local part as
// entered
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}

// BeforeCreate assigns the primary key and a verification code
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	u.AssignID()
	if u.VerificationCode == "" {
		u.VerificationCode, err = newVerificationCode()
	}
	return
}

// BeforeSave normalizes the email and hashes a password given through
// SetPassword
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return core.ErrInvalidField{Field: "email", Message: "user must have an email address"}
	}
	if u.plainPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.plainPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.plainPassword = ""
	}
	if u.Password == "" {
		return core.ErrInvalidField{Field: "password", Message: "must not be empty"}
	}
	return nil
}

// SetPassword replaces the password; the hash is computed when the user
// is saved
func (u *User) SetPassword(password string) {
	u.plainPassword = password
}

// ComparePassword checks a plain-text password against the stored hash
func (u *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

// BeforeDelete refuses to drop a user type that accounts still reference
func (ut *UserType) BeforeDelete(tx *gorm.DB) error {
	var count int64
	if err := tx.Session(&gorm.Session{NewDB: true}).Model(&User{}).
		Where("user_type_id = ?", ut.ID).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return core.ErrDeleteForbidden{Message: "user type is assigned to users"}
	}

	return nil
}
