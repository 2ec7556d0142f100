package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	shopdb "github.com/nao1215/shop/internal/shop/db"
	"github.com/nao1215/shop/pkg/middleware"
)

// ErrInvalidCredentials はユーザー名またはパスワードが誤っていることを表す。
// 存在しないユーザーとパスワード不一致は呼び出し側から区別できない。
var ErrInvalidCredentials = errors.New("ユーザー名またはパスワードが正しくありません")

// UserLookup はユーザー名からユーザーを引くストア。
// ユーザーが存在しない場合は sql.ErrNoRows を返す。
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (shopdb.User, error)
}

// MaxUsernameLength はユーザー名として受け付ける最大文字数。
const MaxUsernameLength = 64

// NormalizeUsername はユーザー名の前後の空白を取り除く。
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// AuditName は監査イベントに記録するユーザー名を返す。
// 未認証の入力がそのまま保存されないよう、MaxUsernameLength文字で切り詰める。
func AuditName(username string) string {
	username = NormalizeUsername(username)
	if utf8.RuneCountInString(username) <= MaxUsernameLength {
		return username
	}
	return string([]rune(username)[:MaxUsernameLength])
}

// Token は発行済みのベアラートークン。
type Token struct {
	// Value は署名済みのトークン文字列。
	Value string
	// ExpiresAt はトークンの有効期限。
	ExpiresAt time.Time
	// Lifetime は発行時点でのトークンの有効期間。
	Lifetime time.Duration
}

// Header はAuthorizationヘッダーに設定する値を返す。
func (t Token) Header() string {
	return middleware.TokenPrefix + t.Value
}

// Authenticator は資格情報を検証してトークンを発行する。
type Authenticator struct {
	users  UserLookup
	hasher *Hasher
	signer *middleware.TokenSigner
	// dummyHash は存在しないユーザーでも照合処理を行い、応答時間を揃えるためのハッシュ。
	dummyHash string
}

// NewAuthenticator は新しいAuthenticatorを生成する。
func NewAuthenticator(users UserLookup, hasher *Hasher, signer *middleware.TokenSigner) (*Authenticator, error) {
	dummy, err := hasher.HashPassword("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("ダミーハッシュの生成に失敗: %w", err)
	}
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		signer:    signer,
		dummyHash: dummy,
	}, nil
}

// Authenticate はユーザー名とパスワードを検証し、一致したユーザーを返す。
// ユーザー名の前後の空白は登録時と同じく取り除く。
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (shopdb.User, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return shopdb.User{}, ErrInvalidCredentials
	}

	user, err := a.users.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		_ = a.hasher.ComparePassword(password, a.dummyHash)
		return shopdb.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return shopdb.User{}, fmt.Errorf("ユーザーの取得に失敗: %w", err)
	}

	if err := a.hasher.ComparePassword(password, user.PasswordHash); err != nil {
		return shopdb.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login は資格情報を検証し、成功した場合にユーザー名をsubjectとするトークンを発行する。
func (a *Authenticator) Login(ctx context.Context, username, password string) (Token, error) {
	user, err := a.Authenticate(ctx, username, password)
	if err != nil {
		return Token{}, err
	}

	value, expiresAt, err := a.signer.Sign(user.Username)
	if err != nil {
		return Token{}, fmt.Errorf("トークンの発行に失敗: %w", err)
	}
	return Token{Value: value, ExpiresAt: expiresAt, Lifetime: a.signer.TTL()}, nil
}
