package shopdb

import (
	"context"
	"database/sql"
	"errors"
)

const createCart = `INSERT INTO carts (user_id) VALUES (?)`

// CreateCart はユーザーの空のカートを作成し、採番されたIDを返す。
func (q *Queries) CreateCart(ctx context.Context, userID int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, createCart, userID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getCartByUserID = `SELECT id, user_id FROM carts WHERE user_id = ?`

// GetCartByUserID はユーザーのカートを取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetCartByUserID(ctx context.Context, userID int64) (Cart, error) {
	var c Cart
	err := q.db.QueryRowContext(ctx, getCartByUserID, userID).Scan(&c.ID, &c.UserID)
	return c, err
}

const addCartItem = `
INSERT INTO cart_items (cart_id, item_id, quantity) VALUES (?, ?, ?)
ON CONFLICT (cart_id, item_id) DO UPDATE SET quantity = quantity + excluded.quantity`

// AddCartItemParams はAddCartItemとRemoveCartItemの引数。
type AddCartItemParams struct {
	CartID   int64
	ItemID   int64
	Quantity int
}

// AddCartItem はカートに商品を数量分追加する。既にある場合は数量を加算する。
func (q *Queries) AddCartItem(ctx context.Context, arg AddCartItemParams) error {
	_, err := q.db.ExecContext(ctx, addCartItem, arg.CartID, arg.ItemID, arg.Quantity)
	return err
}

const getCartItemQuantity = `SELECT quantity FROM cart_items WHERE cart_id = ? AND item_id = ?`

const deleteCartItem = `DELETE FROM cart_items WHERE cart_id = ? AND item_id = ?`

const decrementCartItem = `UPDATE cart_items SET quantity = quantity - ? WHERE cart_id = ? AND item_id = ?`

// RemoveCartItem はカートから商品を数量分取り除く。数量が0以下になる場合は行を削除する。
// カートにない商品の場合は何もしない。
func (q *Queries) RemoveCartItem(ctx context.Context, arg AddCartItemParams) error {
	var current int
	err := q.db.QueryRowContext(ctx, getCartItemQuantity, arg.CartID, arg.ItemID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}

	if current <= arg.Quantity {
		_, err = q.db.ExecContext(ctx, deleteCartItem, arg.CartID, arg.ItemID)
		return err
	}
	_, err = q.db.ExecContext(ctx, decrementCartItem, arg.Quantity, arg.CartID, arg.ItemID)
	return err
}

const listCartLines = `
SELECT i.id, i.name, i.price, i.description, ci.quantity
FROM cart_items ci
JOIN items i ON i.id = ci.item_id
WHERE ci.cart_id = ?
ORDER BY i.id`

// ListCartLines はカート内の商品と数量を返す。
func (q *Queries) ListCartLines(ctx context.Context, cartID int64) ([]CartLine, error) {
	rows, err := q.db.QueryContext(ctx, listCartLines, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.Item.ID, &l.Item.Name, &l.Item.Price, &l.Item.Description, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const clearCart = `DELETE FROM cart_items WHERE cart_id = ?`

// ClearCart はカートを空にする。
func (q *Queries) ClearCart(ctx context.Context, cartID int64) error {
	_, err := q.db.ExecContext(ctx, clearCart, cartID)
	return err
}
