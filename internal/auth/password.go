package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
const MaxPasswordBytes = 72

// ErrPasswordTooLong はパスワードがMaxPasswordBytesを超えていることを表す。
var ErrPasswordTooLong = errors.New("パスワードが長すぎます")

// Hasher はbcryptでパスワードのハッシュ化と照合を行う。
type Hasher struct {
	cost int
}

// NewHasher は指定したコストのHasherを生成する。範囲外のコストはbcrypt.DefaultCostに置き換える。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// HashPassword はパスワードのハッシュを生成する。
func (h *Hasher) HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hash), nil
}

// ComparePassword はパスワードがハッシュと一致しない場合にエラーを返す。
func (h *Hasher) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
