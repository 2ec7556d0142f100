package shopdb

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

const createItem = `INSERT INTO items (name, price, description) VALUES (?, ?, ?)`

// CreateItemParams はCreateItemの引数。
type CreateItemParams struct {
	Name        string
	Price       decimal.Decimal
	Description string
}

// CreateItem は商品を登録し、採番されたIDを返す。
func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createItem, arg.Name, arg.Price.String(), arg.Description)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getItemByID = `SELECT id, name, price, description FROM items WHERE id = ?`

// GetItemByID はIDで商品を取得する。存在しない場合は sql.ErrNoRows を返す。
func (q *Queries) GetItemByID(ctx context.Context, id int64) (Item, error) {
	var i Item
	err := q.db.QueryRowContext(ctx, getItemByID, id).Scan(&i.ID, &i.Name, &i.Price, &i.Description)
	return i, err
}

const listItems = `SELECT id, name, price, description FROM items ORDER BY id`

// ListItems はすべての商品を返す。
func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, listItems)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

const listItemsByName = `SELECT id, name, price, description FROM items WHERE name = ? ORDER BY id`

// ListItemsByName は名前が一致する商品を返す。
func (q *Queries) ListItemsByName(ctx context.Context, name string) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, listItemsByName, name)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	defer func() { _ = rows.Close() }()

	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
