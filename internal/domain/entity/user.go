package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User представляет учётную запись. Ядро подбора пар видит только ID,
// имя пользователя служит внешним ключом для клиента.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// isBcryptHash проверяет, что строка уже является bcrypt-хешем
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashPassword хеширует открытый пароль пользователя. Уже хешированный пароль не трогает.
func (u *User) HashPassword() error {
	if len(u.Password) == 0 || isBcryptHash(u.Password) {
		return nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[User.HashPassword] Ошибка при хешировании пароля для username=%s: %v", u.Username, err)
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// BeforeSave хеширует пароль перед сохранением через GORM
func (u *User) BeforeSave(tx *gorm.DB) error {
	return u.HashPassword()
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}
