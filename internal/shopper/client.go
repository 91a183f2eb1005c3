package shopper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/internal/transport"
)

// APIError is a failure answered by the storefront API. It matches a domain
// sentinel under errors.Is when the codes agree.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	t, ok := target.(*domain.Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Session is the result of a successful login
type Session struct {
	AccessToken  string
	RefreshToken string
	User         transport.UserProfile
}

// APIClient talks to the storefront HTTP API on behalf of one shopper
type APIClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken sets the bearer token sent with every request
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Login authenticates and keeps the access token for later calls
func (c *APIClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp transport.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/users/login", transport.LoginRequest{
		Email:    email,
		Password: password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	c.SetToken(resp.AccessToken)
	return &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}, nil
}

func (c *APIClient) FetchCart(ctx context.Context) (domain.Cart, error) {
	var resp transport.CartResponse
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		return domain.NewCart(), nil
	}
	return resp.Items, nil
}

// SyncCart replaces the server cart with cart
func (c *APIClient) SyncCart(ctx context.Context, cart domain.Cart) error {
	return c.do(ctx, http.MethodPut, "/api/cart", transport.ReplaceCartRequest{Items: cart}, nil)
}

// Quote prices the server cart, applying promotionCode when it is not empty
func (c *APIClient) Quote(ctx context.Context, promotionCode string) (*service.Quote, error) {
	var quote service.Quote
	err := c.do(ctx, http.MethodPost, "/api/cart/quote", transport.QuoteRequest{PromotionCode: promotionCode}, &quote)
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (c *APIClient) PlaceOrder(ctx context.Context, req transport.PlaceOrderRequest) (*transport.PlaceOrderResponse, error) {
	var resp transport.PlaceOrderResponse
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: "unreadable error response"}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
