package shopdb

import (
	"time"

	"github.com/shopspring/decimal"
)

// User は登録済みユーザー。
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Item は購入可能な商品。
type Item struct {
	ID          int64
	Name        string
	Price       decimal.Decimal
	Description string
}

// Cart はユーザーのカート。
type Cart struct {
	ID     int64
	UserID int64
}

// CartLine はカート内の1商品と数量。
type CartLine struct {
	Item     Item
	Quantity int
}

// Subtotal は行の小計を返す。
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order は確定済みの注文。
type Order struct {
	ID        int64
	UserID    int64
	Total     decimal.Decimal
	CreatedAt time.Time
	Lines     []OrderLine
}

// OrderLine は注文時点の商品名・価格・数量。
type OrderLine struct {
	ItemID   int64
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Total はカート行の合計金額を返す。
func Total(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
