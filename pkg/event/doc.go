// Package event はショップの監査イベントを定義する。
//
// ユーザー登録、ログイン、カート変更、注文確定の結果を不変のイベントとして表し、
// ログ分析のために永続化される。
package event
