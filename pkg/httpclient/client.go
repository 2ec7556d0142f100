package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	// headerAuthorization はベアラートークンを運ぶHTTPヘッダー名。
	headerAuthorization = "Authorization"
	// bearerPrefix はAuthorizationヘッダー値のプレフィックス。
	bearerPrefix = "Bearer "
)

// ErrNoToken はログイン応答にAuthorizationヘッダーが含まれていなかったことを表す。
var ErrNoToken = errors.New("レスポンスにAuthorizationヘッダーがありません")

// StatusError は2xx以外のHTTPレスポンスを表す。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body string
}

// Error はエラーメッセージを返す。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// StatusCode はerrがStatusErrorであればそのステータスコードを、そうでなければ0を返す。
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// User はユーザー登録APIのレスポンス。
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Client はショップAPIのHTTPクライアント。
// ログイン後はトークンを保持し、すべてのリクエストに付与する。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string

	mu    sync.RWMutex
	token string
}

// New は新しいHTTPクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "http://localhost:8080"）を指定する。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Token は保持しているベアラートークンを返す。
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken はリクエストに付与するベアラートークンを設定する。空文字列で解除する。
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// CreateUser はユーザーを登録する。
func (c *Client) CreateUser(ctx context.Context, username, password string) (*User, error) {
	body := map[string]string{
		"username":        username,
		"password":        password,
		"confirmPassword": password,
	}
	var user User
	if err := c.PostJSON(ctx, "/api/user/create", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login はログインしてAuthorizationヘッダーの値（"Bearer <token>"）を返す。
// 取得したトークンは以降のリクエストに付与される。
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	header := resp.Header.Get(headerAuthorization)
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		return "", ErrNoToken
	}
	c.SetToken(token)
	return header, nil
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

// do はリクエストを組み立てて送信する。保持しているトークンがあればAuthorizationヘッダーに設定する。
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set(headerAuthorization, bearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	return resp, nil
}

// checkStatus は2xx以外のレスポンスをStatusErrorに変換する。
func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}
