// ショップサービスのエントリポイント。
// ユーザー登録、ログインによるトークン発行、商品・カート・注文のAPIを提供する。
// SIGINT/SIGTERMを受け取ると処理中のリクエストを待ってから停止する。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/shop/internal/config"
	"github.com/nao1215/shop/internal/shop"
	shopdb "github.com/nao1215/shop/internal/shop/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := shopdb.Open(ctx, cfg.DatabasePath)
	if err != nil {
		log.Fatalf("データベースの初期化に失敗: %v", err)
	}
	defer db.Close()

	server, err := shop.NewServer(cfg, db)
	if err != nil {
		log.Fatalf("ショップサーバーの初期化に失敗: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("ショップサービスを起動します: :%s", cfg.Port)
		errCh <- server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("ショップサービスの起動に失敗: %v", err)
		}
		return
	case <-ctx.Done():
	}

	log.Printf("ショップサービスを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("シャットダウンに失敗: %v", err)
	}
}
