package shop

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/shop/internal/auth"
	shopdb "github.com/nao1215/shop/internal/shop/db"
	"github.com/nao1215/shop/pkg/event"
	"github.com/nao1215/shop/pkg/middleware"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 7

// ErrUsernameTaken はユーザー名が既に使われていることを表す。
var ErrUsernameTaken = errors.New("ユーザー名は既に使われています")

// createUserRequest はユーザー登録リクエストのJSON構造。
type createUserRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// userResponse はユーザーのJSONレスポンス構造。パスワードハッシュは含めない。
type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// validate は登録リクエストを検証し、問題があれば理由を返す。
func (r *createUserRequest) validate() string {
	switch {
	case r.Username == "":
		return "ユーザー名が空です"
	case utf8.RuneCountInString(r.Username) > auth.MaxUsernameLength:
		return fmt.Sprintf("ユーザー名は%d文字以内で指定してください", auth.MaxUsernameLength)
	case len(r.Password) < MinPasswordLength:
		return "パスワードは7文字以上で指定してください"
	case len(r.Password) > auth.MaxPasswordBytes:
		return auth.ErrPasswordTooLong.Error()
	case r.Password != r.ConfirmPassword:
		return "確認用パスワードが一致しません"
	}
	return ""
}

// handleCreateUser はユーザー登録を処理するハンドラを返す。
// ユーザーと空のカートを同じトランザクションで作成する。
func (s *Server) handleCreateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストが不正です"})
			return
		}
		req.Username = auth.NormalizeUsername(req.Username)

		if reason := req.validate(); reason != "" {
			name := auth.AuditName(req.Username)
			s.Record(ctx, name, event.AggregateTypeUser, event.TypeUserCreationFailed, event.UserCreationFailedData{
				Username: name,
				Reason:   reason,
			})
			c.JSON(http.StatusBadRequest, gin.H{"error": reason})
			return
		}

		hash, err := s.hasher.HashPassword(req.Password)
		if err != nil {
			log.Printf("[Shop] パスワードハッシュ化エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの作成に失敗しました"})
			return
		}

		var userID int64
		err = s.withTx(ctx, func(q *shopdb.Queries) error {
			id, err := q.CreateUser(ctx, shopdb.CreateUserParams{
				Username:     req.Username,
				PasswordHash: hash,
			})
			if shopdb.IsUniqueViolation(err) {
				return ErrUsernameTaken
			}
			if err != nil {
				return err
			}
			if _, err := q.CreateCart(ctx, id); err != nil {
				return err
			}
			userID = id
			return nil
		})
		if errors.Is(err, ErrUsernameTaken) {
			s.Record(ctx, req.Username, event.AggregateTypeUser, event.TypeUserCreationFailed, event.UserCreationFailedData{
				Username: req.Username,
				Reason:   "username taken",
			})
			c.JSON(http.StatusConflict, gin.H{"error": ErrUsernameTaken.Error()})
			return
		}
		if err != nil {
			log.Printf("[Shop] ユーザー作成エラー: username=%s, error=%v", req.Username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの作成に失敗しました"})
			return
		}

		s.Record(ctx, req.Username, event.AggregateTypeUser, event.TypeUserCreated, event.UserCreatedData{
			UserID:   userID,
			Username: req.Username,
		})
		c.JSON(http.StatusOK, userResponse{ID: userID, Username: req.Username})
	}
}

// handleGetUserByID はIDによるユーザー取得を処理するハンドラを返す。
// ほかのユーザーのIDは存在しないものとして404を返す。
func (s *Server) handleGetUserByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "IDが不正です"})
			return
		}

		user, err := s.queries.GetUserByID(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && user.Username != middleware.GetUsername(c)) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			log.Printf("[Shop] ユーザー取得エラー: id=%d, error=%v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username})
	}
}

// handleGetUserByUsername はユーザー名によるユーザー取得を処理するハンドラを返す。
// ほかのユーザー名は存在しないものとして404を返す。
func (s *Server) handleGetUserByUsername() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username")
		if username != middleware.GetUsername(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}

		user, err := s.queries.GetUserByUsername(c.Request.Context(), username)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
			return
		}
		if err != nil {
			log.Printf("[Shop] ユーザー取得エラー: username=%s, error=%v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
			return
		}

		c.JSON(http.StatusOK, userResponse{ID: user.ID, Username: user.Username})
	}
}
