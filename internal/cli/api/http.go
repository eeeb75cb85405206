package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Error — ответ сервера с ошибкой: статус и тело {"error","reason"}.
type Error struct {
	Status  int
	Reason  string
	Message string
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Reason)
	}
	return fmt.Sprintf("server status %d: %s", e.Status, e.Message)
}

// Client — HTTP-клиент API VaultSync. Token передаётся как Bearer.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New создаёт клиента для сервера baseURL.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Response — результат запроса: тело и заголовки ответа.
type Response struct {
	Status   int
	Header   http.Header
	Cookies  []*http.Cookie
	Body     []byte
	Degraded string
}

// DoJSON отправляет payload (если не nil) как JSON и декодирует успешный ответ в out.
func (c *Client) DoJSON(ctx context.Context, method, path string, payload, out any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// Upload отправляет файл multipart-формой (поле file).
func (c *Client) Upload(ctx context.Context, path, fileName string, data []byte, out any) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) (*Response, error) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	r := &Response{
		Status:   resp.StatusCode,
		Header:   resp.Header,
		Cookies:  resp.Cookies(),
		Body:     b,
		Degraded: resp.Header.Get("X-Degraded"),
	}
	if resp.StatusCode >= 300 {
		return r, decodeError(resp.StatusCode, b)
	}
	if out != nil && len(b) > 0 {
		if err := json.Unmarshal(b, out); err != nil {
			return r, fmt.Errorf("decode: %w", err)
		}
	}
	return r, nil
}

func decodeError(status int, body []byte) error {
	e := &Error{Status: status}
	var wire struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(body, &wire) == nil && (wire.Error != "" || wire.Reason != "") {
		e.Message, e.Reason = wire.Error, wire.Reason
	} else {
		e.Message = strings.TrimSpace(string(body))
	}
	return e
}

// TokenFromResponse извлекает токен: из тела {"token"} или из cookie auth_token.
func TokenFromResponse(r *Response) (string, error) {
	var body struct {
		Token string `json:"token"`
	}
	if json.Unmarshal(r.Body, &body) == nil && body.Token != "" {
		return body.Token, nil
	}
	for _, c := range r.Cookies {
		if c.Name == "auth_token" && c.Value != "" {
			return c.Value, nil
		}
	}
	return "", fmt.Errorf("no auth token in response")
}

// ReasonOf возвращает reason ошибки сервера или "".
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
