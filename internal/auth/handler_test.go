package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/shop/pkg/event"
	"github.com/nao1215/shop/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordedEvent は記録された監査イベント。
type recordedEvent struct {
	aggregateID string
	eventType   event.Type
}

// fakeAudit はテスト用の監査ログ。
type fakeAudit struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeAudit) Record(_ context.Context, aggregateID string, _ event.AggregateType, eventType event.Type, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{aggregateID: aggregateID, eventType: eventType})
}

// doLogin は/loginにリクエストを送るヘルパー関数。
func doLogin(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestLoginHandler はPOST /loginを検証する。
func TestLoginHandler(t *testing.T) {
	t.Parallel()

	newRouter := func(t *testing.T) (*gin.Engine, *fakeAudit, *fakeUsers, *middleware.TokenSigner) {
		t.Helper()

		a, users, signer := newTestAuthenticator(t)
		audit := &fakeAudit{}
		router := gin.New()
		router.POST("/login", a.LoginHandler(audit))
		return router, audit, users, signer
	}

	t.Run("正しい資格情報でAuthorizationヘッダーが返ること", func(t *testing.T) {
		t.Parallel()

		router, audit, _, signer := newRouter(t)
		w := doLogin(t, router, `{"username":"alice","password":"12345678"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d, body=%s", w.Code, http.StatusOK, w.Body.String())
		}
		header := w.Header().Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			t.Fatalf("Authorization = %q, Bearerで始まるべき", header)
		}
		claims, err := signer.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			t.Fatalf("発行されたトークンの検証に失敗: %v", err)
		}
		if claims.Username() != "alice" {
			t.Errorf("Username = %q, want %q", claims.Username(), "alice")
		}

		var body loginResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body.Token != strings.TrimPrefix(header, "Bearer ") {
			t.Error("ボディとヘッダーのトークンが一致しない")
		}
		if body.TokenType != "Bearer" {
			t.Errorf("token_type = %q, want %q", body.TokenType, "Bearer")
		}
		if body.ExpiresIn != 3600 {
			t.Errorf("expires_in = %d, want 3600", body.ExpiresIn)
		}

		if len(audit.events) != 1 || audit.events[0].eventType != event.TypeLoginSucceeded {
			t.Errorf("events = %+v", audit.events)
		}
	})

	failures := []struct {
		name string
		body string
	}{
		{name: "誤ったパスワードで401が返ること", body: `{"username":"alice","password":"wrong"}`},
		{name: "存在しないユーザーで401が返ること", body: `{"username":"invalid_user","password":"invalid_pass"}`},
		{name: "パスワードが欠けている場合401が返ること", body: `{"username":"alice"}`},
		{name: "JSONでないボディで401が返ること", body: `username=alice&password=12345678`},
		{name: "空のボディで401が返ること", body: ``},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router, audit, _, _ := newRouter(t)
			w := doLogin(t, router, tt.body)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if got := w.Header().Get("Authorization"); got != "" {
				t.Errorf("Authorization = %q, 失敗時は設定されないべき", got)
			}

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスボディのパースに失敗: %v", err)
			}
			if body["error"] != ErrInvalidCredentials.Error() {
				t.Errorf("error = %q, want %q", body["error"], ErrInvalidCredentials.Error())
			}

			if len(audit.events) != 1 || audit.events[0].eventType != event.TypeLoginFailed {
				t.Errorf("events = %+v", audit.events)
			}
		})
	}

	t.Run("前後に空白のあるユーザー名でもログインできること", func(t *testing.T) {
		t.Parallel()

		router, audit, _, _ := newRouter(t)
		w := doLogin(t, router, `{"username":"  alice ","password":"12345678"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if len(audit.events) != 1 || audit.events[0].aggregateID != "alice" {
			t.Errorf("events = %+v", audit.events)
		}
	})

	t.Run("長いユーザー名は切り詰めて記録されること", func(t *testing.T) {
		t.Parallel()

		router, audit, _, _ := newRouter(t)
		long := strings.Repeat("あ", MaxUsernameLength*10)
		w := doLogin(t, router, `{"username":"`+long+`","password":"12345678"}`)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
		}
		if len(audit.events) != 1 {
			t.Fatalf("events = %+v", audit.events)
		}
		if got := audit.events[0].aggregateID; got != strings.Repeat("あ", MaxUsernameLength) {
			t.Errorf("aggregateID = %q (%d文字), want %d文字", got, len([]rune(got)), MaxUsernameLength)
		}
	})

	t.Run("ストア障害時は500が返ること", func(t *testing.T) {
		t.Parallel()

		router, _, users, _ := newRouter(t)
		users.err = errors.New("disk I/O error")
		w := doLogin(t, router, `{"username":"alice","password":"12345678"}`)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusInternalServerError)
		}
		if got := w.Header().Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, 失敗時は設定されないべき", got)
		}
	})
}
