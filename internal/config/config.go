// Package config は環境変数からショップサービスの設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
)

// DevJWTSecret はJWT_SECRETが未設定の場合に使用する開発用シークレット。
const DevJWTSecret = "dev-secret-key"

// Config はショップサービスの実行時設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8080"`
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string `env:"DATABASE_PATH" envDefault:"/data/shop.db"`
	// JWTSecret はトークン署名用の秘密鍵。
	JWTSecret string `env:"JWT_SECRET"`
	// JWTIssuer はトークンのissクレームに設定する発行者名。
	JWTIssuer string `env:"JWT_ISSUER" envDefault:"shop"`
	// JWTExpiration はトークンの有効期間。
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"240h"`
	// BcryptCost はパスワードハッシュのコスト。
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
	// CORSAllowedOrigins はCORSを許可するオリジンの一覧。
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	// ShutdownTimeout はグレースフルシャットダウンの待機時間。
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load は環境変数から設定を読み込み、値を検証する。
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}

	if cfg.JWTSecret == "" {
		log.Printf("[Config] JWT_SECRETが未設定のため開発用シークレットを使用します")
		cfg.JWTSecret = DevJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate は設定値の妥当性を検証する。
func (c *Config) validate() error {
	if c.Port == "" {
		return errors.New("PORTが空です")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATHが空です")
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATIONは正の値である必要があります: %s", c.JWTExpiration)
	}
	// bcryptが受け付けるコストの範囲は4〜31。
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COSTは4〜31の範囲で指定してください: %d", c.BcryptCost)
	}
	return nil
}
