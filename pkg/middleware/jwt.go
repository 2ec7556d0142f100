package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// HeaderAuthorization はベアラートークンを運ぶHTTPヘッダー名。
	HeaderAuthorization = "Authorization"
	// TokenPrefix はAuthorizationヘッダー値のプレフィックス。
	TokenPrefix = "Bearer "
	// DefaultTokenTTL はトークンの既定の有効期間（10日）。
	DefaultTokenTTL = 864_000_000 * time.Millisecond
)

// contextKeyUsername はginコンテキストと context.Context に認証済みユーザー名を格納するキー。
const contextKeyUsername = "username"

// usernameKey は context.Context 用のキー型。
type usernameKey struct{}

var (
	// ErrEmptySubject はsubクレームが空のトークンを表す。
	ErrEmptySubject = errors.New("トークンのsubjectが空です")
	// ErrEmptySecret は署名鍵が未設定であることを表す。
	ErrEmptySecret = errors.New("JWTシークレットが空です")
)

// JWTClaims はJWTトークンのクレーム（ペイロード）を表す。
// subクレームに認証済みユーザー名を格納する。
type JWTClaims struct {
	jwt.RegisteredClaims
}

// Username はトークンが表すユーザー名を返す。
func (c *JWTClaims) Username() string {
	return c.Subject
}

// TokenSigner はHS512でトークンの署名と検証を行う。
// サーバー側に状態を持たないため、同じ設定のインスタンス同士で発行と検証が成立する。
type TokenSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	// now はテストで時刻を差し替えるための関数。
	now func() time.Time
}

// NewTokenSigner は新しいTokenSignerを生成する。ttlが0以下の場合はDefaultTokenTTLを使用する。
func NewTokenSigner(secret, issuer string, ttl time.Duration) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL はトークンの有効期間を返す。
func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}

// Sign はユーザー名をsubjectとする署名済みトークンと、その有効期限を返す。
func (s *TokenSigner) Sign(username string) (string, time.Time, error) {
	if username == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse はトークン文字列を検証し、クレームを返す。
// HMAC以外のアルゴリズム、署名不一致、期限切れ、発行者不一致、subject欠落はエラーになる。
func (s *TokenSigner) Parse(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("想定外の署名アルゴリズム: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("トークンの検証に失敗: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("トークンが無効です")
	}
	if claims.Subject == "" {
		return nil, ErrEmptySubject
	}
	return claims, nil
}

// JWTAuth はベアラートークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、ginコンテキストとリクエストの context.Context にユーザー名を設定する。
// ユーザーストアには問い合わせない。
func JWTAuth(signer *TokenSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c.GetHeader(HeaderAuthorization))
		if !ok {
			Unauthorized(c, "Bearerトークンが必要です")
			return
		}

		claims, err := signer.Parse(tokenString)
		if err != nil {
			Unauthorized(c, "トークンが無効です")
			return
		}

		username := claims.Username()
		c.Set(contextKeyUsername, username)
		c.Request = c.Request.WithContext(WithUsername(c.Request.Context(), username))
		c.Next()
	}
}

// BearerToken はAuthorizationヘッダー値からトークン部分を取り出す。
func BearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, TokenPrefix)
	if !found {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

// Unauthorized は認証失敗時の共通レスポンス（401）を返し、後続のハンドラを中断する。
func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// GetUsername はGinコンテキストから認証済みユーザー名を取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetUsername(c *gin.Context) string {
	if v, ok := c.Get(contextKeyUsername); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}

// WithUsername はコンテキストに認証済みユーザー名を設定する。
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// UsernameFromContext はコンテキストから認証済みユーザー名を取得する。
func UsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey{}).(string)
	return name, ok && name != ""
}
