// Package vscamm is the Go client for the AMM gateway HTTP API.
package vscamm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vsc-eco/vsc-amm/schemas"
)

// Config holds client settings
type Config struct {
	// Endpoint is the gateway base URL, e.g. http://localhost:8080
	Endpoint string
	// HTTPClient overrides the default http.Client when set
	HTTPClient *http.Client
}

// Client provides SDK methods for AMM gateway operations
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates a new AMM gateway client
func NewClient(config Config) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{config: config, http: httpClient}
}

// APIError is a non-2xx gateway response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

// ExchangeInfo describes one exchange and its reserves
type ExchangeInfo struct {
	Token        string `json:"token"`
	Address      string `json:"address"`
	ReserveBase  string `json:"reserve_base"`
	ReserveToken string `json:"reserve_token"`
	TotalShares  string `json:"total_shares"`
}

// QuoteResult is a priced but unexecuted trade
type QuoteResult struct {
	Side   string `json:"side"`
	Mode   string `json:"mode"`
	Amount string `json:"amount"`
	Quote  string `json:"quote"`
}

// SwapResult reports the realized side of an executed swap
type SwapResult struct {
	Mode      string `json:"mode"`
	AmountOut string `json:"amount_out,omitempty"`
	AmountIn  string `json:"amount_in,omitempty"`
}

// AddLiquidityRequest deposits into a pool
type AddLiquidityRequest struct {
	Provider     string `json:"provider"`
	Token        string `json:"token"`
	NativeAmount string `json:"native_amount"`
	MaxTokens    string `json:"max_tokens"`
	MinShares    string `json:"min_shares,omitempty"`
	Deadline     uint64 `json:"deadline"`
}

// RemoveLiquidityRequest withdraws from a pool
type RemoveLiquidityRequest struct {
	Provider  string `json:"provider"`
	Token     string `json:"token"`
	Shares    string `json:"shares"`
	MinNative string `json:"min_native"`
	MinTokens string `json:"min_tokens"`
	Deadline  uint64 `json:"deadline"`
}

// RemoveLiquidityResult is the payout of a withdrawal
type RemoveLiquidityResult struct {
	Native string `json:"native"`
	Tokens string `json:"tokens"`
}

// CreateExchange registers a new exchange for the token
func (c *Client) CreateExchange(ctx context.Context, token string) (*ExchangeInfo, error) {
	var out ExchangeInfo
	if err := c.post(ctx, "/api/v1/exchanges", map[string]string{"token": token}, &out); err != nil {
		return nil, fmt.Errorf("create exchange: %w", err)
	}
	return &out, nil
}

// Exchanges lists every exchange the gateway serves
func (c *Client) Exchanges(ctx context.Context) ([]ExchangeInfo, error) {
	var out []ExchangeInfo
	if err := c.get(ctx, "/api/v1/exchanges", &out); err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	return out, nil
}

// Exchange returns one exchange by token
func (c *Client) Exchange(ctx context.Context, token string) (*ExchangeInfo, error) {
	var out ExchangeInfo
	if err := c.get(ctx, "/api/v1/exchanges/"+url.PathEscape(token), &out); err != nil {
		return nil, fmt.Errorf("get exchange: %w", err)
	}
	return &out, nil
}

// Quote prices a hypothetical trade without executing it
func (c *Client) Quote(ctx context.Context, token, side, mode, amount string) (*QuoteResult, error) {
	q := url.Values{}
	q.Set("side", side)
	q.Set("mode", mode)
	q.Set("amount", amount)
	path := "/api/v1/exchanges/" + url.PathEscape(token) + "/price?" + q.Encode()

	var out QuoteResult
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}
	return &out, nil
}

// Swap submits a swap instruction for execution
func (c *Client) Swap(ctx context.Context, inst *schemas.SwapInstruction) (*SwapResult, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("swap instruction: %w", err)
	}
	var out SwapResult
	if err := c.post(ctx, "/api/v1/swap", inst, &out); err != nil {
		return nil, fmt.Errorf("swap: %w", err)
	}
	return &out, nil
}

// AddLiquidity deposits into a pool and returns the shares minted
func (c *Client) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (string, error) {
	var out struct {
		Shares string `json:"shares"`
	}
	if err := c.post(ctx, "/api/v1/liquidity/add", req, &out); err != nil {
		return "", fmt.Errorf("add liquidity: %w", err)
	}
	return out.Shares, nil
}

// RemoveLiquidity burns shares and returns the native and token payouts
func (c *Client) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (*RemoveLiquidityResult, error) {
	var out RemoveLiquidityResult
	if err := c.post(ctx, "/api/v1/liquidity/remove", req, &out); err != nil {
		return nil, fmt.Errorf("remove liquidity: %w", err)
	}
	return &out, nil
}

// Faucet mints a balance on the gateway's ledgers and returns the new balance.
// The asset is either "native" or a token identity.
func (c *Client) Faucet(ctx context.Context, account, asset, amount string) (string, error) {
	var out struct {
		Balance string `json:"balance"`
	}
	body := map[string]string{"account": account, "asset": asset, "amount": amount}
	if err := c.post(ctx, "/api/v1/faucet", body, &out); err != nil {
		return "", fmt.Errorf("faucet: %w", err)
	}
	return out.Balance, nil
}

// Approve grants the token's exchange an allowance on the owner's balance
func (c *Client) Approve(ctx context.Context, owner, token, amount string) error {
	body := map[string]string{"owner": owner, "token": token, "amount": amount}
	if err := c.post(ctx, "/api/v1/approve", body, nil); err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

// Health checks gateway liveness
func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, "/health", nil); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.config.Endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.config.Endpoint+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
