package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword возвращает bcrypt-хеш пароля оператора для auth.password_hash
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с хешем; пустой хеш не совпадает ни с чем
func CheckPassword(hash string, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
