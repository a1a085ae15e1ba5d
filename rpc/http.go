package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"synthchain/native/market"
	"synthchain/native/oracle"
	"synthchain/native/params"
	"synthchain/native/privacy"
	"synthchain/native/synth"
	"synthchain/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	rateLimitWindow = time.Minute
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeRateLimited    = -32020
)

// OracleSink accepts published price samples from authorized attesters.
type OracleSink interface {
	PutSample(feedID string, sample oracle.PriceSample) error
}

type rateLimiter struct {
	count       int
	windowStart time.Time
}

// Server exposes the synth and market engines over JSON-RPC 2.0. Engine
// transitions are serialized under a single mutex; the engines themselves are
// pure and expect external mutual exclusion.
type Server struct {
	log        *slog.Logger
	synth      *synth.Engine
	market     *market.Engine
	oracleSink OracleSink

	authToken string
	rateLimit int
	now       func() int64

	mu       sync.Mutex
	limiters map[string]*rateLimiter
	lmu      sync.Mutex
}

// NewServer wires the engines behind the RPC surface. An empty authToken
// disables every mutating method.
func NewServer(log *slog.Logger, synthEngine *synth.Engine, marketEngine *market.Engine, authToken string, rateLimitPerMinute int) *Server {
	if rateLimitPerMinute <= 0 {
		rateLimitPerMinute = 600
	}
	return &Server{
		log:       log,
		synth:     synthEngine,
		market:    marketEngine,
		authToken: strings.TrimSpace(authToken),
		rateLimit: rateLimitPerMinute,
		now:       func() int64 { return time.Now().Unix() },
		limiters:  make(map[string]*rateLimiter),
	}
}

// SetOracleSink enables the sample submission method.
func (s *Server) SetOracleSink(sink OracleSink) { s.oracleSink = sink }

// Router assembles the HTTP routes: the JSON-RPC endpoint, a liveness probe
// and the prometheus scrape endpoint.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return r
}

// Start serves the router on addr and blocks.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status > 0 && status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)

	client := clientIP(r)
	if !s.allow(client) {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != jsonRPCVersion || strings.TrimSpace(req.Method) == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "invalid JSON-RPC request")
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found")
		return
	}
	if mutatingMethods[req.Method] {
		if !s.authorized(r) {
			s.log.Warn("unauthorized rpc call", "method", req.Method, "request_id", requestID, "client", client)
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized")
			return
		}
	}

	s.mu.Lock()
	result, rpcErr := handler(req.Params)
	s.mu.Unlock()

	errCode := 0
	if rpcErr != nil {
		errCode = rpcErr.Code
		s.log.Warn("rpc call failed",
			"method", req.Method,
			"request_id", requestID,
			"code", rpcErr.Code,
			"message", rpcErr.Message,
		)
		writeError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message)
	} else {
		writeResult(w, req.ID, result)
	}
	metrics.RPC().Observe(req.Method, errCode, time.Since(started))
}

type handlerFunc func(params []json.RawMessage) (interface{}, *RPCError)

func (s *Server) methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"synth_initializeConfig":    s.handleInitializeConfig,
		"synth_updateConfig":        s.handleUpdateConfig,
		"synth_getConfig":           s.handleGetConfig,
		"synth_mint":                s.handleMint,
		"synth_burn":                s.handleBurn,
		"synth_liquidate":           s.handleLiquidate,
		"synth_triggerHedge":        s.handleTriggerHedge,
		"synth_manualHedgeOverride": s.handleManualHedgeOverride,
		"synth_getPosition":         s.handleGetPosition,
		"synth_healthFactor":        s.handleHealthFactor,
		"synth_maxMintable":         s.handleMaxMintable,
		"synth_submitOracleSample":  s.handleSubmitOracleSample,
		"market_create":             s.handleMarketCreate,
		"market_bet":                s.handleMarketBet,
		"market_settle":             s.handleMarketSettle,
		"market_get":                s.handleMarketGet,
		"market_impliedProbability": s.handleImpliedProbability,
		"market_payout":             s.handlePayout,
	}
}

var mutatingMethods = map[string]bool{
	"synth_initializeConfig":    true,
	"synth_updateConfig":        true,
	"synth_mint":                true,
	"synth_burn":                true,
	"synth_liquidate":           true,
	"synth_triggerHedge":        true,
	"synth_manualHedgeOverride": true,
	"synth_submitOracleSample":  true,
	"market_create":             true,
	"market_bet":                true,
	"market_settle":             true,
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) allow(client string) bool {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	now := time.Now()
	limiter := s.limiters[client]
	if limiter == nil || now.Sub(limiter.windowStart) >= rateLimitWindow {
		s.limiters[client] = &rateLimiter{count: 1, windowStart: now}
		return true
	}
	if limiter.count >= s.rateLimit {
		return false
	}
	limiter.count++
	return true
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// errorCode maps engine errors onto JSON-RPC error codes. Validation failures
// map to invalid params; everything else surfaces as a server error with the
// sentinel's message.
func errorCode(err error) int {
	switch {
	case errors.Is(err, synth.ErrZeroAmount),
		errors.Is(err, synth.ErrInvalidCollateralIndex),
		errors.Is(err, market.ErrZeroAmount),
		errors.Is(err, market.ErrInvalidMarket),
		errors.Is(err, market.ErrInvalidResolutionTime),
		errors.Is(err, market.ErrInvalidAdvisoryRequest),
		errors.Is(err, params.ErrInvalidRatio),
		errors.Is(err, params.ErrInvalidInterval),
		errors.Is(err, params.ErrInvalidCollateralList),
		errors.Is(err, params.ErrDuplicateCollateral),
		errors.Is(err, params.ErrOracleMismatch),
		errors.Is(err, privacy.ErrInvalidShareParams):
		return codeInvalidParams
	case errors.Is(err, synth.ErrUnauthorized):
		return codeUnauthorized
	case errors.Is(err, oracle.ErrInvalidOracle),
		errors.Is(err, oracle.ErrStalePrice),
		errors.Is(err, oracle.ErrConsensus):
		return codeServerError
	default:
		return codeServerError
	}
}

func engineError(err error) *RPCError {
	return &RPCError{Code: errorCode(err), Message: err.Error()}
}

func invalidParams(message string) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message}
}

func decodeParams(params []json.RawMessage, target interface{}) *RPCError {
	if len(params) != 1 {
		return invalidParams("expected a single params object")
	}
	if err := json.Unmarshal(params[0], target); err != nil {
		return invalidParams("malformed params object")
	}
	return nil
}
