package shopdb

import (
	"context"

	"github.com/nao1215/shop/pkg/event"
)

const appendEvent = `
INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

// AppendEvent は監査イベントを追記する。
func (q *Queries) AppendEvent(ctx context.Context, e *event.Event) error {
	_, err := q.db.ExecContext(ctx, appendEvent,
		e.ID, e.AggregateID, string(e.AggregateType), string(e.EventType), string(e.Data), e.CreatedAt)
	return err
}

const listEventsByAggregateID = `
SELECT id, aggregate_id, aggregate_type, event_type, data, created_at
FROM events WHERE aggregate_id = ? ORDER BY rowid`

// ListEventsByAggregateID は対象エンティティのイベントを発生順に返す。
func (q *Queries) ListEventsByAggregateID(ctx context.Context, aggregateID string) ([]event.Event, error) {
	rows, err := q.db.QueryContext(ctx, listEventsByAggregateID, aggregateID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var events []event.Event
	for rows.Next() {
		var (
			e    event.Event
			data string
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = []byte(data)
		events = append(events, e)
	}
	return events, rows.Err()
}
