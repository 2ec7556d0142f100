// Package middleware はショップAPIで使用する共通のGinミドルウェアを提供する。
//
// ベアラートークンの発行と検証（ステートレスな認証チェーン）、
// パニックリカバリ、CORS設定を含む。
package middleware
