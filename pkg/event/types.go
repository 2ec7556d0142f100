package event

import (
	"encoding/json"
	"time"
)

// AggregateType はイベントの対象となるエンティティの種類を表す。
type AggregateType string

const (
	// AggregateTypeUser はユーザーエンティティを表す。
	AggregateTypeUser AggregateType = "User"
	// AggregateTypeCart はカートエンティティを表す。
	AggregateTypeCart AggregateType = "Cart"
	// AggregateTypeOrder は注文エンティティを表す。
	AggregateTypeOrder AggregateType = "Order"
)

// Type はイベントの種類を表す。
type Type string

const (
	// TypeUserCreated はユーザーが登録されたことを表す。
	TypeUserCreated Type = "UserCreated"
	// TypeUserCreationFailed はユーザー登録が拒否されたことを表す。
	TypeUserCreationFailed Type = "UserCreationFailed"

	// TypeLoginSucceeded は認証に成功しトークンが発行されたことを表す。
	TypeLoginSucceeded Type = "LoginSucceeded"
	// TypeLoginFailed は認証に失敗したことを表す。
	TypeLoginFailed Type = "LoginFailed"

	// TypeCartModified はカートの内容が変更されたことを表す。
	TypeCartModified Type = "CartModified"

	// TypeOrderSubmitted は注文が確定したことを表す。
	TypeOrderSubmitted Type = "OrderSubmitted"
	// TypeOrderSubmissionFailed は注文の確定に失敗したことを表す。
	TypeOrderSubmissionFailed Type = "OrderSubmissionFailed"
)

// Event は監査ログとして記録される不変のイベントレコードを表す。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// AggregateID は対象エンティティの識別子（通常はユーザー名）。
	AggregateID string `json:"aggregate_id"`
	// AggregateType は対象エンティティの種類。
	AggregateType AggregateType `json:"aggregate_type"`
	// EventType はイベントの種類。
	EventType Type `json:"event_type"`
	// Data はイベント固有のデータ（JSON形式）。
	Data json.RawMessage `json:"data"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// UserCreatedData はUserCreatedイベントのデータ。
type UserCreatedData struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// UserCreationFailedData はUserCreationFailedイベントのデータ。
type UserCreationFailedData struct {
	Username string `json:"username"`
	// Reason は拒否された理由。
	Reason string `json:"reason"`
}

// LoginSucceededData はLoginSucceededイベントのデータ。
type LoginSucceededData struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFailedData はLoginFailedイベントのデータ。
// パスワードやその一部は決して含めない。
type LoginFailedData struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

// CartModifiedData はCartModifiedイベントのデータ。
type CartModifiedData struct {
	CartID int64 `json:"cart_id"`
	ItemID int64 `json:"item_id"`
	// Delta は数量の変化量。削除の場合は負の値。
	Delta int    `json:"delta"`
	Total string `json:"total"`
}

// OrderSubmittedData はOrderSubmittedイベントのデータ。
type OrderSubmittedData struct {
	OrderID int64  `json:"order_id"`
	Items   int    `json:"items"`
	Total   string `json:"total"`
}

// OrderSubmissionFailedData はOrderSubmissionFailedイベントのデータ。
type OrderSubmissionFailedData struct {
	Username string `json:"username"`
	Reason   string `json:"reason"`
}
