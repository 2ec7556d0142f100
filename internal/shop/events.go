package shop

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/shop/pkg/event"
	"github.com/nao1215/shop/pkg/middleware"
)

// Record は監査イベントをログに出力し、eventsテーブルに追記する。
// 記録に失敗してもリクエストは失敗させない。aggregateIDが空のイベントはログにのみ出力する。
func (s *Server) Record(ctx context.Context, aggregateID string, aggregateType event.AggregateType, eventType event.Type, data any) {
	ev, err := event.New(aggregateID, aggregateType, eventType, data)
	if err != nil {
		log.Printf("[Event] イベント生成に失敗: type=%s, error=%v", eventType, err)
		return
	}

	log.Printf("[Event] %s", ev)
	if aggregateID == "" {
		return
	}
	if err := s.queries.AppendEvent(context.WithoutCancel(ctx), ev); err != nil {
		log.Printf("[Event] イベント保存に失敗: id=%s, error=%v", ev.ID, err)
	}
}

// handleListEvents はユーザー自身の監査イベント一覧の取得を処理するハンドラを返す。
func (s *Server) handleListEvents() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if username != middleware.GetUsername(c) {
			forbidden(c)
			return
		}

		events, err := s.queries.ListEventsByAggregateID(c.Request.Context(), username)
		if err != nil {
			log.Printf("[Event] イベント取得エラー: aggregate_id=%s, error=%v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの取得に失敗しました"})
			return
		}
		if events == nil {
			events = []event.Event{}
		}
		c.JSON(http.StatusOK, events)
	}
}
