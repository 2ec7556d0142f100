package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/shop/internal/auth"
	"github.com/nao1215/shop/internal/config"
	shopdb "github.com/nao1215/shop/internal/shop/db"
	"github.com/nao1215/shop/pkg/middleware"
)

// Server はショップサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// httpServer はRunで起動し、Shutdownで停止するHTTPサーバー。
	httpServer *http.Server
	// db はSQLiteデータベース接続。
	db *sql.DB
	// queries はショップのテーブルに対するクエリ実行オブジェクト。
	queries *shopdb.Queries
	// hasher はパスワードのハッシュ化に使う。
	hasher *auth.Hasher
	// authenticator は資格情報の検証とトークン発行を行う。
	authenticator *auth.Authenticator
	// signer はベアラートークンの検証に使う。
	signer *middleware.TokenSigner
}

// NewServer は新しいショップサーバーを生成する。
// dbはマイグレーション適用済みであること。
func NewServer(cfg *config.Config, db *sql.DB) (*Server, error) {
	signer, err := middleware.NewTokenSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("トークン署名器の初期化に失敗: %w", err)
	}

	queries := shopdb.New(db)
	hasher := auth.NewHasher(cfg.BcryptCost)
	authenticator, err := auth.NewAuthenticator(queries, hasher, signer)
	if err != nil {
		return nil, fmt.Errorf("認証器の初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:            db,
		queries:       queries,
		hasher:        hasher,
		authenticator: authenticator,
		signer:        signer,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はルーティング済みのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。Shutdownで停止した場合はnilを返す。
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown は処理中のリクエストの完了を待ってサーバーを停止する。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 認証不要のエンドポイント
	s.router.POST("/login", s.authenticator.LoginHandler(s))
	s.router.POST("/api/user/create", s.handleCreateUser())

	// 認証必須のAPIエンドポイント
	api := s.router.Group("/api")
	api.Use(middleware.JWTAuth(s.signer))
	{
		user := api.Group("/user")
		{
			user.GET("/id/:id", s.handleGetUserByID())
			user.GET("/:username", s.handleGetUserByUsername())
		}

		item := api.Group("/item")
		{
			item.GET("", s.handleListItems())
			item.GET("/:id", s.handleGetItemByID())
			item.GET("/name/:name", s.handleListItemsByName())
		}

		cart := api.Group("/cart")
		{
			cart.POST("/addToCart", s.handleAddToCart())
			cart.POST("/removeFromCart", s.handleRemoveFromCart())
		}

		order := api.Group("/order")
		{
			order.POST("/submit/:username", s.handleSubmitOrder())
			order.GET("/history/:username", s.handleOrderHistory())
		}

		// 監査イベント
		api.GET("/events/:username", s.handleListEvents())
	}

	s.router.NoRoute(s.handleNoRoute())

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "shop"})
	})
}

// handleNoRoute は未定義のパスに404を返すハンドラを返す。
// /api配下は認証を先に行い、トークンがなければ401を返す。
func (s *Server) handleNoRoute() gin.HandlerFunc {
	authenticate := middleware.JWTAuth(s.signer)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			authenticate(c)
			if c.IsAborted() {
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "見つかりません"})
	}
}

// withTx はトランザクション内でfnを実行する。fnがエラーを返した場合はロールバックする。
func (s *Server) withTx(ctx context.Context, fn func(q *shopdb.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	if err := fn(s.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[Shop] ロールバックに失敗: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// forbidden はほかのユーザーのリソースへのアクセスを拒否する。
func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "ほかのユーザーのリソースにはアクセスできません"})
}
