package shop

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	shopdb "github.com/nao1215/shop/internal/shop/db"
	"github.com/nao1215/shop/pkg/event"
	"github.com/nao1215/shop/pkg/middleware"
)

// orderItemResponse は注文明細のJSONレスポンス構造。
type orderItemResponse struct {
	ItemID   int64           `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// orderResponse は注文のJSONレスポンス構造。
type orderResponse struct {
	ID        int64               `json:"id"`
	Username  string              `json:"username"`
	Items     []orderItemResponse `json:"items"`
	Total     decimal.Decimal     `json:"total"`
	CreatedAt string              `json:"created_at"`
}

// toOrderResponse はDB行をJSONレスポンスに変換する。
func toOrderResponse(username string, o shopdb.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, orderItemResponse{
			ItemID:   l.ItemID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
		})
	}
	return orderResponse{
		ID:        o.ID,
		Username:  username,
		Items:     items,
		Total:     o.Total,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// handleSubmitOrder は注文の確定を処理するハンドラを返す。
// カートの内容から注文を作成し、カートを空にする。
func (s *Server) handleSubmitOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		username := c.Param("username")
		if username != middleware.GetUsername(c) {
			forbidden(c)
			return
		}

		cart, err := s.cartOf(ctx, username)
		if err != nil {
			s.Record(ctx, username, event.AggregateTypeOrder, event.TypeOrderSubmissionFailed, event.OrderSubmissionFailedData{
				Username: username,
				Reason:   err.Error(),
			})
			s.respondLookupError(c, err)
			return
		}

		var order shopdb.Order
		err = s.withTx(ctx, func(q *shopdb.Queries) error {
			lines, err := q.ListCartLines(ctx, cart.ID)
			if err != nil {
				return err
			}
			order, err = q.CreateOrder(ctx, cart.UserID, lines)
			if err != nil {
				return err
			}
			return q.ClearCart(ctx, cart.ID)
		})
		if err != nil {
			log.Printf("[Shop] 注文作成エラー: username=%s, error=%v", username, err)
			s.Record(ctx, username, event.AggregateTypeOrder, event.TypeOrderSubmissionFailed, event.OrderSubmissionFailedData{
				Username: username,
				Reason:   "internal error",
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "注文の確定に失敗しました"})
			return
		}

		s.Record(ctx, username, event.AggregateTypeOrder, event.TypeOrderSubmitted, event.OrderSubmittedData{
			OrderID: order.ID,
			Items:   len(order.Lines),
			Total:   order.Total.StringFixed(2),
		})
		c.JSON(http.StatusOK, toOrderResponse(username, order))
	}
}

// handleOrderHistory は注文履歴の取得を処理するハンドラを返す。
func (s *Server) handleOrderHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		username := c.Param("username")
		if username != middleware.GetUsername(c) {
			forbidden(c)
			return
		}

		user, err := s.queries.GetUserByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = errUserNotFound
			}
			s.respondLookupError(c, err)
			return
		}

		orders, err := s.queries.ListOrdersByUserID(ctx, user.ID)
		if err != nil {
			log.Printf("[Shop] 注文履歴取得エラー: username=%s, error=%v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "注文履歴の取得に失敗しました"})
			return
		}

		resp := make([]orderResponse, 0, len(orders))
		for _, o := range orders {
			resp = append(resp, toOrderResponse(username, o))
		}
		c.JSON(http.StatusOK, resp)
	}
}
