package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery はハンドラ内のパニックを500レスポンスに変換するGinミドルウェアを返す。
// ログには認証済みユーザー名とスタックトレースを含めるが、Authorizationヘッダーは出力しない。
// http.ErrAbortHandlerによる中断はそのまま再送出する。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}

			user := GetUsername(c)
			if user == "" {
				user = "-"
			}
			log.Printf("[PANIC] %s %s user=%s: %v\n%s", c.Request.Method, c.Request.URL.Path, user, r, debug.Stack())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "内部サーバーエラーが発生しました",
			})
		}()
		c.Next()
	}
}
