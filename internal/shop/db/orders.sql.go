package shopdb

import (
	"context"
	"time"
)

const createOrder = `INSERT INTO orders (user_id, total, created_at) VALUES (?, ?, ?)`

const createOrderItem = `INSERT INTO order_items (order_id, item_id, name, price, quantity) VALUES (?, ?, ?, ?, ?)`

// CreateOrder はカートの内容から注文と注文明細を作成する。
// 複数の文を実行するため、呼び出し側でトランザクション内の Queries を使うこと。
func (q *Queries) CreateOrder(ctx context.Context, userID int64, lines []CartLine) (Order, error) {
	order := Order{
		UserID:    userID,
		Total:     Total(lines),
		CreatedAt: time.Now().UTC(),
	}

	res, err := q.db.ExecContext(ctx, createOrder, order.UserID, order.Total.String(), order.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	if order.ID, err = res.LastInsertId(); err != nil {
		return Order{}, err
	}

	order.Lines = make([]OrderLine, 0, len(lines))
	for _, l := range lines {
		line := OrderLine{
			ItemID:   l.Item.ID,
			Name:     l.Item.Name,
			Price:    l.Item.Price,
			Quantity: l.Quantity,
		}
		if _, err := q.db.ExecContext(ctx, createOrderItem, order.ID, line.ItemID, line.Name, line.Price.String(), line.Quantity); err != nil {
			return Order{}, err
		}
		order.Lines = append(order.Lines, line)
	}
	return order, nil
}

const listOrdersByUserID = `SELECT id, user_id, total, created_at FROM orders WHERE user_id = ? ORDER BY id`

const listOrderLines = `SELECT item_id, name, price, quantity FROM order_items WHERE order_id = ? ORDER BY item_id`

// ListOrdersByUserID はユーザーの注文履歴を明細付きで古い順に返す。
func (q *Queries) ListOrdersByUserID(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := q.db.QueryContext(ctx, listOrdersByUserID, userID)
	if err != nil {
		return nil, err
	}

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Total, &o.CreatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// インメモリDBは接続が1本のため、明細の取得前に結果セットを閉じる
	_ = rows.Close()

	for i := range orders {
		lines, err := q.listOrderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (q *Queries) listOrderLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	rows, err := q.db.QueryContext(ctx, listOrderLines, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var lines []OrderLine
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ItemID, &l.Name, &l.Price, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
