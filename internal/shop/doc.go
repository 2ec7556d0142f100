// Package shop はショップサービスのHTTPサーバーを提供する。
//
// ユーザー登録、商品参照、カート操作、注文の確定と履歴取得を扱う。
// /loginとユーザー登録以外の/api配下はベアラートークンによる認証が必要で、
// 認証済みユーザーは自分自身のユーザー・カート・注文にのみアクセスできる。
// 主要な操作の結果は監査イベントとしてeventsテーブルに記録する。
package shop
