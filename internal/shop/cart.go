package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	shopdb "github.com/nao1215/shop/internal/shop/db"
	"github.com/nao1215/shop/pkg/event"
	"github.com/nao1215/shop/pkg/middleware"
)

// MaxQuantity は1回のカート操作で指定できる数量の上限。
const MaxQuantity = math.MaxInt32

var (
	// errUserNotFound はユーザーが存在しないことを表す。
	errUserNotFound = errors.New("ユーザーが見つかりません")
	// errItemNotFound は商品が存在しないことを表す。
	errItemNotFound = errors.New("商品が見つかりません")
	// errCartNotFound はカートが存在しないことを表す。
	errCartNotFound = errors.New("カートが見つかりません")
)

// modifyCartRequest はカート操作リクエストのJSON構造。
// usernameを省略した場合は認証済みユーザーのカートを操作する。
type modifyCartRequest struct {
	Username string `json:"username"`
	ItemID   int64  `json:"itemId"`
	// Quantity は追加または削除する数量。0の場合は1として扱う。
	Quantity int `json:"quantity"`
}

// cartItemResponse はカート内の1商品のJSONレスポンス構造。
type cartItemResponse struct {
	ItemID   int64           `json:"itemId"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// cartResponse はカートのJSONレスポンス構造。
type cartResponse struct {
	ID    int64              `json:"id"`
	Items []cartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// toCartResponse はカートと行をJSONレスポンスに変換する。
func toCartResponse(cart shopdb.Cart, lines []shopdb.CartLine) cartResponse {
	items := make([]cartItemResponse, 0, len(lines))
	for _, l := range lines {
		items = append(items, cartItemResponse{
			ItemID:   l.Item.ID,
			Name:     l.Item.Name,
			Price:    l.Item.Price,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		})
	}
	return cartResponse{
		ID:    cart.ID,
		Items: items,
		Total: shopdb.Total(lines),
	}
}

// handleAddToCart はカートへの商品追加を処理するハンドラを返す。
func (s *Server) handleAddToCart() gin.HandlerFunc {
	return s.handleModifyCart(1, func(ctx context.Context, q *shopdb.Queries, arg shopdb.AddCartItemParams) error {
		return q.AddCartItem(ctx, arg)
	})
}

// handleRemoveFromCart はカートからの商品削除を処理するハンドラを返す。
func (s *Server) handleRemoveFromCart() gin.HandlerFunc {
	return s.handleModifyCart(-1, func(ctx context.Context, q *shopdb.Queries, arg shopdb.AddCartItemParams) error {
		return q.RemoveCartItem(ctx, arg)
	})
}

// handleModifyCart はカート操作の共通処理を行うハンドラを返す。
// signは監査イベントに記録する数量変化の符号。
func (s *Server) handleModifyCart(sign int, modify func(context.Context, *shopdb.Queries, shopdb.AddCartItemParams) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		bearer := middleware.GetUsername(c)

		var req modifyCartRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}
		if req.Username == "" {
			req.Username = bearer
		}
		if req.Username != bearer {
			forbidden(c)
			return
		}
		if req.Quantity < 0 || req.Quantity > MaxQuantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("数量は0以上%d以下で指定してください", MaxQuantity)})
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}

		cart, err := s.cartOf(ctx, req.Username)
		if err != nil {
			s.respondLookupError(c, err)
			return
		}
		if _, err := s.queries.GetItemByID(ctx, req.ItemID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				err = errItemNotFound
			}
			s.respondLookupError(c, err)
			return
		}

		var lines []shopdb.CartLine
		err = s.withTx(ctx, func(q *shopdb.Queries) error {
			if err := modify(ctx, q, shopdb.AddCartItemParams{
				CartID:   cart.ID,
				ItemID:   req.ItemID,
				Quantity: req.Quantity,
			}); err != nil {
				return err
			}
			var err error
			lines, err = q.ListCartLines(ctx, cart.ID)
			return err
		})
		if err != nil {
			log.Printf("[Shop] カート更新エラー: cart_id=%d, error=%v", cart.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "カートの更新に失敗しました"})
			return
		}

		resp := toCartResponse(cart, lines)
		s.Record(ctx, req.Username, event.AggregateTypeCart, event.TypeCartModified, event.CartModifiedData{
			CartID: cart.ID,
			ItemID: req.ItemID,
			Delta:  sign * req.Quantity,
			Total:  resp.Total.StringFixed(2),
		})
		c.JSON(http.StatusOK, resp)
	}
}

// cartOf はユーザー名からそのユーザーのカートを引く。
func (s *Server) cartOf(ctx context.Context, username string) (shopdb.Cart, error) {
	user, err := s.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return shopdb.Cart{}, errUserNotFound
	}
	if err != nil {
		return shopdb.Cart{}, err
	}

	cart, err := s.queries.GetCartByUserID(ctx, user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return shopdb.Cart{}, errCartNotFound
	}
	return cart, err
}

// respondLookupError は参照系のエラーを404または500に変換して返す。
func (s *Server) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUserNotFound), errors.Is(err, errItemNotFound), errors.Is(err, errCartNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Printf("[Shop] 参照エラー: path=%s, error=%v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "内部エラーが発生しました"})
	}
}
