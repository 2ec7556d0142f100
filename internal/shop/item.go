package shop

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	shopdb "github.com/nao1215/shop/internal/shop/db"
)

// itemResponse は商品のJSONレスポンス構造。価格は文字列の10進表記になる。
type itemResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// toItemResponse はDB行をJSONレスポンスに変換する。
func toItemResponse(i shopdb.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Price:       i.Price,
		Description: i.Description,
	}
}

// toItemResponses は複数のDB行をJSONレスポンスに変換する。
func toItemResponses(items []shopdb.Item) []itemResponse {
	resp := make([]itemResponse, 0, len(items))
	for _, i := range items {
		resp = append(resp, toItemResponse(i))
	}
	return resp
}

// handleListItems は商品一覧の取得を処理するハンドラを返す。
func (s *Server) handleListItems() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := s.queries.ListItems(c.Request.Context())
		if err != nil {
			log.Printf("[Shop] 商品一覧取得エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "商品一覧の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, toItemResponses(items))
	}
}

// handleGetItemByID はIDによる商品取得を処理するハンドラを返す。
func (s *Server) handleGetItemByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
			return
		}

		item, err := s.queries.GetItemByID(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "商品が見つかりません"})
			return
		}
		if err != nil {
			log.Printf("[Shop] 商品取得エラー: id=%d, error=%v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "商品の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, toItemResponse(item))
	}
}

// handleListItemsByName は商品名による検索を処理するハンドラを返す。
// 一致する商品がない場合は404を返す。
func (s *Server) handleListItemsByName() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		items, err := s.queries.ListItemsByName(c.Request.Context(), name)
		if err != nil {
			log.Printf("[Shop] 商品検索エラー: name=%s, error=%v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "商品の検索に失敗しました"})
			return
		}
		if len(items) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "商品が見つかりません"})
			return
		}
		c.JSON(http.StatusOK, toItemResponses(items))
	}
}
