// Package httpclient はショップAPIを呼び出すHTTPクライアントを提供する。
//
// ユーザー登録とログインを行い、ログインで受け取ったベアラートークンを
// 以降のリクエストのAuthorizationヘッダーに付与する。
// エンドツーエンドテストや運用ツールから使用する。
package httpclient
