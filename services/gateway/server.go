package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/vsc-eco/vsc-amm/exchange"
	"github.com/vsc-eco/vsc-amm/ledger"
	"github.com/vsc-eco/vsc-amm/registry"
	"github.com/vsc-eco/vsc-amm/schemas"
)

// Server provides the HTTP API over a Node
type Server struct {
	node *Node
	hub  *Hub
	log  *zap.Logger
	http *http.Server
}

// NewServer creates the gateway HTTP server
func NewServer(node *Node, hub *Hub, log *zap.Logger, addr string) *Server {
	s := &Server{
		node: node,
		hub:  hub,
		log:  log,
	}

	r := mux.NewRouter()

	// Exchange management and queries
	r.HandleFunc("/api/v1/exchanges", s.handleCreateExchange).Methods("POST")
	r.HandleFunc("/api/v1/exchanges", s.handleListExchanges).Methods("GET")
	r.HandleFunc("/api/v1/exchanges/{token}", s.handleGetExchange).Methods("GET")
	r.HandleFunc("/api/v1/exchanges/{token}/price", s.handleQuote).Methods("GET")

	// Trading and liquidity
	r.HandleFunc("/api/v1/swap", s.handleSwap).Methods("POST")
	r.HandleFunc("/api/v1/liquidity/add", s.handleAddLiquidity).Methods("POST")
	r.HandleFunc("/api/v1/liquidity/remove", s.handleRemoveLiquidity).Methods("POST")

	// Account plumbing for demos and tests
	r.HandleFunc("/api/v1/faucet", s.handleFaucet).Methods("POST")
	r.HandleFunc("/api/v1/approve", s.handleApprove).Methods("POST")

	// Event feed
	r.HandleFunc("/ws", s.hub.HandleWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.http = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return s
}

// Handler exposes the route table; tests mount it on httptest servers.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type exchangeView struct {
	Token        string `json:"token"`
	Address      string `json:"address"`
	ReserveBase  string `json:"reserve_base"`
	ReserveToken string `json:"reserve_token"`
	TotalShares  string `json:"total_shares"`
}

func viewOf(token ledger.Address, x *exchange.Exchange) exchangeView {
	base, tok := x.Reserves()
	return exchangeView{
		Token:        string(token),
		Address:      string(x.Address()),
		ReserveBase:  base.Dec(),
		ReserveToken: tok.Dec(),
		TotalShares:  x.TotalShares().Dec(),
	}
}

func (s *Server) handleCreateExchange(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	x, err := s.node.Registry.CreateExchange(ledger.Address(req.Token))
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.log.Info("exchange created",
		zap.String("token", req.Token),
		zap.String("address", string(x.Address())))
	writeJSON(w, http.StatusCreated, viewOf(ledger.Address(req.Token), x))
}

func (s *Server) handleListExchanges(w http.ResponseWriter, r *http.Request) {
	tokens := s.node.Registry.Tokens()
	views := make([]exchangeView, 0, len(tokens))
	for _, token := range tokens {
		if x, ok := s.node.Registry.Exchange(token); ok {
			views = append(views, viewOf(token, x))
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetExchange(w http.ResponseWriter, r *http.Request) {
	token := ledger.Address(mux.Vars(r)["token"])
	x, ok := s.node.Registry.Exchange(token)
	if !ok {
		writeError(w, http.StatusNotFound, "exchange not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(token, x))
}

// handleQuote prices a hypothetical trade without executing it.
// Query parameters: side=native_to_token|token_to_native,
// mode=exact_input|exact_output, amount=<decimal>.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	token := ledger.Address(mux.Vars(r)["token"])
	x, ok := s.node.Registry.Exchange(token)
	if !ok {
		writeError(w, http.StatusNotFound, "exchange not found")
		return
	}

	amount, err := uint256.FromDecimal(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount is not a valid decimal amount")
		return
	}

	side := r.URL.Query().Get("side")
	mode := r.URL.Query().Get("mode")

	var quoted *uint256.Int
	switch {
	case side == "native_to_token" && mode == schemas.ModeExactInput:
		quoted, err = x.NativeToTokenInputPrice(amount)
	case side == "native_to_token" && mode == schemas.ModeExactOutput:
		quoted, err = x.NativeToTokenOutputPrice(amount)
	case side == "token_to_native" && mode == schemas.ModeExactInput:
		quoted, err = x.TokenToNativeInputPrice(amount)
	case side == "token_to_native" && mode == schemas.ModeExactOutput:
		quoted, err = x.TokenToNativeOutputPrice(amount)
	default:
		writeError(w, http.StatusBadRequest, "unknown side or mode")
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"side":   side,
		"mode":   mode,
		"amount": amount.Dec(),
		"quote":  quoted.Dec(),
	})
}

// handleSwap validates the posted instruction against the JSON schema, parses
// it, and executes the matching swap operation.
func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	if err := schemas.ValidateInstruction(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	inst, err := schemas.ParseFromJSON(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := s.executeSwap(inst)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	s.log.Info("swap executed",
		zap.String("sender", inst.Sender),
		zap.String("token_in", inst.TokenIn),
		zap.String("token_out", inst.TokenOut),
		zap.String("mode", inst.Mode))

	resp := map[string]string{"mode": inst.Mode}
	if inst.Mode == schemas.ModeExactInput {
		resp["amount_out"] = result.Dec()
	} else {
		resp["amount_in"] = result.Dec()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) executeSwap(inst *schemas.SwapInstruction) (*uint256.Int, error) {
	sender := ledger.Address(inst.Sender)
	recipient := sender
	routed := false
	if inst.Recipient != "" && inst.Recipient != inst.Sender {
		recipient = ledger.Address(inst.Recipient)
		routed = true
	}

	// Amounts were schema-validated; parse failures cannot happen here.
	amount := uint256.MustFromDecimal(inst.Amount)
	limit := uint256.MustFromDecimal(inst.Limit)
	deadline := inst.Deadline

	switch {
	case inst.TokenIn == schemas.NativeAsset:
		x, ok := s.node.Registry.Exchange(ledger.Address(inst.TokenOut))
		if !ok {
			return nil, exchange.ErrInvalidExchange
		}
		if inst.Mode == schemas.ModeExactInput {
			if routed {
				return x.NativeToTokenTransferInput(sender, amount, limit, deadline, recipient)
			}
			return x.NativeToTokenSwapInput(sender, amount, limit, deadline)
		}
		if routed {
			return x.NativeToTokenTransferOutput(sender, amount, limit, deadline, recipient)
		}
		return x.NativeToTokenSwapOutput(sender, amount, limit, deadline)

	case inst.TokenOut == schemas.NativeAsset:
		x, ok := s.node.Registry.Exchange(ledger.Address(inst.TokenIn))
		if !ok {
			return nil, exchange.ErrInvalidExchange
		}
		if inst.Mode == schemas.ModeExactInput {
			if routed {
				return x.TokenToNativeTransferInput(sender, amount, limit, deadline, recipient)
			}
			return x.TokenToNativeSwapInput(sender, amount, limit, deadline)
		}
		if routed {
			return x.TokenToNativeTransferOutput(sender, amount, limit, deadline, recipient)
		}
		return x.TokenToNativeSwapOutput(sender, amount, limit, deadline)

	default:
		x, ok := s.node.Registry.Exchange(ledger.Address(inst.TokenIn))
		if !ok {
			return nil, exchange.ErrInvalidExchange
		}
		nativeLimit := nativeLimitFor(inst)
		tokenOut := ledger.Address(inst.TokenOut)
		if inst.Mode == schemas.ModeExactInput {
			if routed {
				return x.TokenToTokenTransferInput(sender, amount, limit, nativeLimit, deadline, recipient, tokenOut)
			}
			return x.TokenToTokenSwapInput(sender, amount, limit, nativeLimit, deadline, tokenOut)
		}
		if routed {
			return x.TokenToTokenTransferOutput(sender, amount, limit, nativeLimit, deadline, recipient, tokenOut)
		}
		return x.TokenToTokenSwapOutput(sender, amount, limit, nativeLimit, deadline, tokenOut)
	}
}

// nativeLimitFor bounds the intermediate native leg of a routed swap. Absent
// an explicit bound the leg is unconstrained: at least one unit bought on
// exact input, any cost on exact output.
func nativeLimitFor(inst *schemas.SwapInstruction) *uint256.Int {
	if inst.NativeLimit != "" {
		return uint256.MustFromDecimal(inst.NativeLimit)
	}
	if inst.Mode == schemas.ModeExactInput {
		return uint256.NewInt(1)
	}
	return new(uint256.Int).SetAllOne()
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider     string `json:"provider"`
		Token        string `json:"token"`
		NativeAmount string `json:"native_amount"`
		MaxTokens    string `json:"max_tokens"`
		MinShares    string `json:"min_shares"`
		Deadline     uint64 `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	x, ok := s.node.Registry.Exchange(ledger.Address(req.Token))
	if !ok {
		writeError(w, http.StatusNotFound, "exchange not found")
		return
	}
	nativeIn, err := uint256.FromDecimal(req.NativeAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "native_amount is not a valid decimal amount")
		return
	}
	maxTokens, err := uint256.FromDecimal(req.MaxTokens)
	if err != nil {
		writeError(w, http.StatusBadRequest, "max_tokens is not a valid decimal amount")
		return
	}
	var minShares *uint256.Int
	if req.MinShares != "" {
		if minShares, err = uint256.FromDecimal(req.MinShares); err != nil {
			writeError(w, http.StatusBadRequest, "min_shares is not a valid decimal amount")
			return
		}
	}

	shares, err := x.AddLiquidity(ledger.Address(req.Provider), nativeIn, maxTokens, minShares, req.Deadline)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"shares": shares.Dec()})
}

func (s *Server) handleRemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider  string `json:"provider"`
		Token     string `json:"token"`
		Shares    string `json:"shares"`
		MinNative string `json:"min_native"`
		MinTokens string `json:"min_tokens"`
		Deadline  uint64 `json:"deadline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	x, ok := s.node.Registry.Exchange(ledger.Address(req.Token))
	if !ok {
		writeError(w, http.StatusNotFound, "exchange not found")
		return
	}
	shares, err := uint256.FromDecimal(req.Shares)
	if err != nil {
		writeError(w, http.StatusBadRequest, "shares is not a valid decimal amount")
		return
	}
	minNative, err := uint256.FromDecimal(req.MinNative)
	if err != nil {
		writeError(w, http.StatusBadRequest, "min_native is not a valid decimal amount")
		return
	}
	minTokens, err := uint256.FromDecimal(req.MinTokens)
	if err != nil {
		writeError(w, http.StatusBadRequest, "min_tokens is not a valid decimal amount")
		return
	}

	native, tokens, err := x.RemoveLiquidity(ledger.Address(req.Provider), shares, minNative, minTokens, req.Deadline)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"native": native.Dec(),
		"tokens": tokens.Dec(),
	})
}

// handleFaucet mints balances so a fresh node can be exercised end to end.
func (s *Server) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Asset   string `json:"asset"`
		Amount  string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Account == "" || req.Asset == "" {
		writeError(w, http.StatusBadRequest, "account and asset are required")
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount is not a valid decimal amount")
		return
	}

	account := ledger.Address(req.Account)
	var balance *uint256.Int
	if req.Asset == schemas.NativeAsset {
		s.node.Bank.Mint(account, amount)
		balance = s.node.Bank.BalanceOf(account)
	} else {
		s.node.Tokens.Mint(ledger.Address(req.Asset), account, amount)
		balance = s.node.Tokens.BalanceOf(ledger.Address(req.Asset), account)
	}
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.Dec()})
}

// handleApprove grants a token allowance. The spender defaults to the token's
// own exchange, which is what every pool operation needs.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner   string `json:"owner"`
		Token   string `json:"token"`
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount is not a valid decimal amount")
		return
	}

	spender := ledger.Address(req.Spender)
	if spender.IsZero() {
		x, ok := s.node.Registry.Exchange(ledger.Address(req.Token))
		if !ok {
			writeError(w, http.StatusNotFound, "exchange not found")
			return
		}
		spender = x.Address()
	}

	if err := s.node.Tokens.Approve(ledger.Address(req.Token), ledger.Address(req.Owner), spender, amount); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"spender":   string(spender),
		"allowance": amount.Dec(),
	})
}

// handleHealth provides health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "amm-gateway",
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrExchangeExists):
		return http.StatusConflict
	case errors.Is(err, exchange.ErrNotConfigured),
		errors.Is(err, exchange.ErrInvalidExchange):
		return http.StatusNotFound
	case errors.Is(err, exchange.ErrAssetTransferFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, registry.ErrInvalidToken),
		errors.Is(err, exchange.ErrInvalidParameters),
		errors.Is(err, exchange.ErrExpired),
		errors.Is(err, exchange.ErrSlippageExceeded),
		errors.Is(err, exchange.ErrInvalidRecipient),
		errors.Is(err, exchange.ErrInsufficientLiquidity),
		errors.Is(err, exchange.ErrInvalidReserve),
		errors.Is(err, exchange.ErrArithmeticOverflow):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
