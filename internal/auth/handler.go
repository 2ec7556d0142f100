package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/shop/pkg/event"
	"github.com/nao1215/shop/pkg/middleware"
)

// AuditLog はログイン結果を監査イベントとして記録する。
type AuditLog interface {
	Record(ctx context.Context, aggregateID string, aggregateType event.AggregateType, eventType event.Type, data any)
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginResponse はログイン成功時のJSON構造。
type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	// ExpiresIn はトークンの有効秒数。
	ExpiresIn int64 `json:"expires_in"`
}

// LoginHandler はPOST /loginを処理するハンドラを返す。
// 成功時はAuthorizationレスポンスヘッダーにベアラートークンを設定する。
// 失敗時はどの項目が誤っていたかを明かさずに401を返す。
func (a *Authenticator) LoginHandler(audit AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req loginRequest
		err := c.ShouldBindJSON(&req)
		name := AuditName(req.Username)
		if err != nil {
			audit.Record(ctx, name, event.AggregateTypeUser, event.TypeLoginFailed, event.LoginFailedData{
				Username: name,
				Reason:   "malformed request",
			})
			middleware.Unauthorized(c, ErrInvalidCredentials.Error())
			return
		}

		token, err := a.Login(ctx, req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			audit.Record(ctx, name, event.AggregateTypeUser, event.TypeLoginFailed, event.LoginFailedData{
				Username: name,
				Reason:   "invalid credentials",
			})
			middleware.Unauthorized(c, ErrInvalidCredentials.Error())
			return
		}
		if err != nil {
			log.Printf("[Auth] ログイン処理エラー: username=%s, error=%v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ログイン処理に失敗しました"})
			return
		}

		audit.Record(ctx, name, event.AggregateTypeUser, event.TypeLoginSucceeded, event.LoginSucceededData{
			Username:  name,
			ExpiresAt: token.ExpiresAt,
		})

		c.Header(middleware.HeaderAuthorization, token.Header())
		c.JSON(http.StatusOK, loginResponse{
			Token:     token.Value,
			TokenType: "Bearer",
			ExpiresIn: int64(token.Lifetime.Seconds()),
		})
	}
}
