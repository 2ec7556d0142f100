// Package auth はショップAPIの認証処理を提供する。
//
// ユーザー名とパスワードを永続化されたユーザーストアと照合し、成功した場合に
// 署名済みのベアラートークンを発行する。以降のリクエストでのトークン検証は
// middleware.JWTAuth が行い、サーバー側にセッションは持たない。
package auth
