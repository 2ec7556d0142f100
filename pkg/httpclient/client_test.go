package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// testPayload はテスト用のリクエスト/レスポンスペイロード。
type testPayload struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("クライアントが正常に生成されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8080/")
		if client.baseURL != "http://localhost:8080" {
			t.Errorf("baseURL = %q, want %q", client.baseURL, "http://localhost:8080")
		}
		if client.httpClient.Timeout.Seconds() != 30 {
			t.Errorf("Timeout = %v, want 30s", client.httpClient.Timeout)
		}
		if client.Token() != "" {
			t.Errorf("Token = %q, want empty string", client.Token())
		}
	})
}

// TestPostJSON はPostJSON関数を検証する。
func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にPOSTリクエストを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Method = r.Method
			received.Path = r.URL.Path
			received.Body, _ = io.ReadAll(r.Body)
			received.Headers = r.Header

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(testPayload{Name: "response", Value: 200})
		}))
		defer ts.Close()

		client := New(ts.URL)
		var result testPayload
		if err := client.PostJSON(context.Background(), "/api/cart/addToCart", testPayload{Name: "request", Value: 100}, &result); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}

		if received.Method != http.MethodPost {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodPost)
		}
		if received.Path != "/api/cart/addToCart" {
			t.Errorf("Path = %q, want %q", received.Path, "/api/cart/addToCart")
		}

		var sentBody testPayload
		if err := json.Unmarshal(received.Body, &sentBody); err != nil {
			t.Fatalf("リクエストボディのパースに失敗: %v", err)
		}
		if sentBody != (testPayload{Name: "request", Value: 100}) {
			t.Errorf("sent = %+v", sentBody)
		}
		if got := received.Headers.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if got := received.Headers.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, トークン未設定時は空であるべき", got)
		}
		if result != (testPayload{Name: "response", Value: 200}) {
			t.Errorf("result = %+v", result)
		}
	})

	statusTests := []struct {
		name   string
		status int
	}{
		{name: "サーバーが400エラーを返した場合にStatusErrorが返ること", status: http.StatusBadRequest},
		{name: "サーバーが403エラーを返した場合にStatusErrorが返ること", status: http.StatusForbidden},
		{name: "サーバーが500エラーを返した場合にStatusErrorが返ること", status: http.StatusInternalServerError},
	}

	for _, tt := range statusTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"failed"}`))
			}))
			defer ts.Close()

			err := New(ts.URL).PostJSON(context.Background(), "/api/test", testPayload{}, nil)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want *StatusError", err)
			}
			if se.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", se.StatusCode, tt.status)
			}
			if se.Body != `{"error":"failed"}` {
				t.Errorf("Body = %q", se.Body)
			}
			if StatusCode(err) != tt.status {
				t.Errorf("StatusCode(err) = %d, want %d", StatusCode(err), tt.status)
			}
		})
	}

	t.Run("キャンセルされたコンテキストでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			json.NewEncoder(w).Encode(testPayload{Name: "response", Value: 1})
		}))
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // 即座にキャンセル

		err := New(ts.URL).PostJSON(ctx, "/api/test", testPayload{}, nil)
		if err == nil {
			t.Fatal("PostJSON()がエラーを返すべきだが、nilが返った")
		}
		if StatusCode(err) != 0 {
			t.Errorf("StatusCode(err) = %d, want 0", StatusCode(err))
		}
	})
}

// TestGetJSON はGetJSON関数を検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("GETリクエストにボディが含まれずレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Method = r.Method
			received.Path = r.URL.Path
			received.Body, _ = io.ReadAll(r.Body)

			json.NewEncoder(w).Encode(testPayload{Name: "get-response", Value: 42})
		}))
		defer ts.Close()

		var result testPayload
		if err := New(ts.URL).GetJSON(context.Background(), "/api/item/1", &result); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if received.Method != http.MethodGet || received.Path != "/api/item/1" {
			t.Errorf("received = %s %s", received.Method, received.Path)
		}
		if len(received.Body) != 0 {
			t.Errorf("GETリクエストにボディが含まれている: %q", string(received.Body))
		}
		if result.Value != 42 {
			t.Errorf("result.Value = %d, want %d", result.Value, 42)
		}
	})

	t.Run("不正なJSONレスポンスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{invalid json}`))
		}))
		defer ts.Close()

		var result testPayload
		if err := New(ts.URL).GetJSON(context.Background(), "/api/test", &result); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		// 存在しないサーバーに接続を試みる
		var result testPayload
		if err := New("http://127.0.0.1:1").GetJSON(context.Background(), "/api/test", &result); err == nil {
			t.Fatal("GetJSON()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestLogin はLogin関数とトークンの付与を検証する。
func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("Authorizationヘッダーのトークンが以降のリクエストに付与されること", func(t *testing.T) {
		t.Parallel()

		var loginBody map[string]string
		var gotAuth string
		mux := http.NewServeMux()
		mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
			json.NewDecoder(r.Body).Decode(&loginBody)
			w.Header().Set("Authorization", "Bearer issued-token")
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("GET /api/item", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		})
		ts := httptest.NewServer(mux)
		defer ts.Close()

		client := New(ts.URL)
		header, err := client.Login(context.Background(), "alice", "12345678")
		if err != nil {
			t.Fatalf("Login()でエラーが発生: %v", err)
		}
		if header != "Bearer issued-token" {
			t.Errorf("header = %q, want %q", header, "Bearer issued-token")
		}
		if client.Token() != "issued-token" {
			t.Errorf("Token = %q, want %q", client.Token(), "issued-token")
		}
		if loginBody["username"] != "alice" || loginBody["password"] != "12345678" {
			t.Errorf("loginBody = %v", loginBody)
		}

		var items []testPayload
		if err := client.GetJSON(context.Background(), "/api/item", &items); err != nil {
			t.Fatalf("GetJSON()でエラーが発生: %v", err)
		}
		if gotAuth != "Bearer issued-token" {
			t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer issued-token")
		}
	})

	t.Run("401の場合はStatusErrorが返りトークンは保持されないこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		client := New(ts.URL)
		_, err := client.Login(context.Background(), "invalid_user", "invalid_pass")
		if StatusCode(err) != http.StatusUnauthorized {
			t.Errorf("StatusCode(err) = %d, want %d", StatusCode(err), http.StatusUnauthorized)
		}
		if client.Token() != "" {
			t.Errorf("Token = %q, want empty string", client.Token())
		}
	})

	t.Run("200でもAuthorizationヘッダーがない場合はErrNoTokenが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		if _, err := New(ts.URL).Login(context.Background(), "alice", "12345678"); !errors.Is(err, ErrNoToken) {
			t.Errorf("err = %v, want %v", err, ErrNoToken)
		}
	})
}

// TestCreateUser はCreateUser関数を検証する。
func TestCreateUser(t *testing.T) {
	t.Parallel()

	var received testRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Path = r.URL.Path
		received.Body, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":7,"username":"rest_user"}`))
	}))
	defer ts.Close()

	user, err := New(ts.URL).CreateUser(context.Background(), "rest_user", "12345678")
	if err != nil {
		t.Fatalf("CreateUser()でエラーが発生: %v", err)
	}
	if user.ID != 7 || user.Username != "rest_user" {
		t.Errorf("user = %+v", user)
	}
	if received.Path != "/api/user/create" {
		t.Errorf("Path = %q, want %q", received.Path, "/api/user/create")
	}

	var body map[string]string
	if err := json.Unmarshal(received.Body, &body); err != nil {
		t.Fatalf("リクエストボディのパースに失敗: %v", err)
	}
	if body["confirmPassword"] != "12345678" {
		t.Errorf("confirmPassword = %q, want %q", body["confirmPassword"], "12345678")
	}
}
