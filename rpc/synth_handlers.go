package rpc

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"synthchain/crypto"
	"synthchain/native/oracle"
	"synthchain/observability/metrics"
)

func parseAddress(raw string) (crypto.Address, *RPCError) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(raw))
	if err != nil {
		return crypto.Address{}, invalidParams("invalid address")
	}
	return addr, nil
}

func parseHexBytes(raw string) ([]byte, *RPCError) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if trimmed == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, invalidParams("invalid hex payload")
	}
	return decoded, nil
}

type initializeConfigParams struct {
	Admin                string   `json:"admin"`
	MinCollateralRatio   uint64   `json:"minCollateralRatio"`
	HedgeIntervalSeconds uint64   `json:"hedgeIntervalSeconds"`
	Collaterals          []string `json:"collaterals"`
	OracleFeeds          []string `json:"oracleFeeds"`
	SynthMint            string   `json:"synthMint"`
}

type configResult struct {
	Admin                string   `json:"admin"`
	MinCollateralRatio   uint64   `json:"minCollateralRatio"`
	HedgeIntervalSeconds uint64   `json:"hedgeIntervalSeconds"`
	Collaterals          []string `json:"collaterals"`
	OracleFeeds          []string `json:"oracleFeeds"`
	SynthMint            string   `json:"synthMint"`
}

func (s *Server) handleInitializeConfig(params []json.RawMessage) (interface{}, *RPCError) {
	var p initializeConfigParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	admin, rpcErr := parseAddress(p.Admin)
	if rpcErr != nil {
		return nil, rpcErr
	}
	cfg, err := s.synth.InitializeConfig(admin, p.MinCollateralRatio, p.HedgeIntervalSeconds, p.Collaterals, p.OracleFeeds, p.SynthMint)
	if err != nil {
		return nil, engineError(err)
	}
	return &configResult{
		Admin:                cfg.Admin.String(),
		MinCollateralRatio:   cfg.MinCollateralRatio,
		HedgeIntervalSeconds: cfg.HedgeIntervalSeconds,
		Collaterals:          cfg.ApprovedCollaterals,
		OracleFeeds:          cfg.OracleFeeds,
		SynthMint:            cfg.SynthMint,
	}, nil
}

type updateConfigParams struct {
	Caller               string `json:"caller"`
	HedgeIntervalSeconds uint64 `json:"hedgeIntervalSeconds"`
}

func (s *Server) handleUpdateConfig(params []json.RawMessage) (interface{}, *RPCError) {
	var p updateConfigParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(p.Caller)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.synth.UpdateConfig(caller, p.HedgeIntervalSeconds); err != nil {
		return nil, engineError(err)
	}
	return map[string]bool{"updated": true}, nil
}

func (s *Server) handleGetConfig(params []json.RawMessage) (interface{}, *RPCError) {
	cfg, err := s.synth.Config()
	if err != nil {
		return nil, engineError(err)
	}
	return &configResult{
		Admin:                cfg.Admin.String(),
		MinCollateralRatio:   cfg.MinCollateralRatio,
		HedgeIntervalSeconds: cfg.HedgeIntervalSeconds,
		Collaterals:          cfg.ApprovedCollaterals,
		OracleFeeds:          cfg.OracleFeeds,
		SynthMint:            cfg.SynthMint,
	}, nil
}

type mintParams struct {
	Owner           string `json:"owner"`
	CollateralIndex int    `json:"collateralIndex"`
	DepositAmount   uint64 `json:"depositAmount"`
	MintAmount      uint64 `json:"mintAmount"`
	FeedID          string `json:"feedId"`
}

func (s *Server) handleMint(params []json.RawMessage) (interface{}, *RPCError) {
	var p mintParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.synth.Mint(owner, p.CollateralIndex, p.DepositAmount, p.MintAmount, p.FeedID, s.now()); err != nil {
		return nil, engineError(err)
	}
	metrics.Engine().RecordMint()
	return map[string]bool{"minted": true}, nil
}

type burnParams struct {
	Owner   string   `json:"owner"`
	Amount  uint64   `json:"amount"`
	FeedIDs []string `json:"feedIds"`
}

func (s *Server) handleBurn(params []json.RawMessage) (interface{}, *RPCError) {
	var p burnParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.synth.Burn(owner, p.Amount, p.FeedIDs, s.now()); err != nil {
		return nil, engineError(err)
	}
	metrics.Engine().RecordBurn()
	return map[string]bool{"burned": true}, nil
}

type liquidateParams struct {
	Liquidator string   `json:"liquidator"`
	Owner      string   `json:"owner"`
	FeedIDs    []string `json:"feedIds"`
}

func (s *Server) handleLiquidate(params []json.RawMessage) (interface{}, *RPCError) {
	var p liquidateParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	liquidator, rpcErr := parseAddress(p.Liquidator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.synth.Liquidate(liquidator, owner, p.FeedIDs, s.now()); err != nil {
		return nil, engineError(err)
	}
	metrics.Engine().RecordLiquidation()
	return map[string]bool{"liquidated": true}, nil
}

type triggerHedgeParams struct {
	Owner    string   `json:"owner"`
	Decision bool     `json:"decision"`
	Proof    string   `json:"proof"`
	Shares   []string `json:"shares"`
}

func (s *Server) handleTriggerHedge(params []json.RawMessage) (interface{}, *RPCError) {
	var p triggerHedgeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	proof, rpcErr := parseHexBytes(p.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	shares := make([][]byte, 0, len(p.Shares))
	for _, raw := range p.Shares {
		share, rpcErr := parseHexBytes(raw)
		if rpcErr != nil {
			return nil, rpcErr
		}
		shares = append(shares, share)
	}
	if err := s.synth.TriggerHedge(owner, p.Decision, proof, shares, s.now()); err != nil {
		return nil, engineError(err)
	}
	metrics.Engine().RecordHedge("auto")
	return map[string]bool{"hedged": p.Decision}, nil
}

type manualHedgeParams struct {
	Owner    string `json:"owner"`
	Decision bool   `json:"decision"`
}

func (s *Server) handleManualHedgeOverride(params []json.RawMessage) (interface{}, *RPCError) {
	var p manualHedgeParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.synth.ManualHedgeOverride(owner, p.Decision, s.now()); err != nil {
		return nil, engineError(err)
	}
	metrics.Engine().RecordHedge("manual")
	return map[string]bool{"hedged": p.Decision}, nil
}

type positionParams struct {
	Owner string `json:"owner"`
}

type positionResult struct {
	Owner              string   `json:"owner"`
	CollateralAmounts  []uint64 `json:"collateralAmounts"`
	MintedDebt         uint64   `json:"mintedDebt"`
	CommitmentHash     string   `json:"commitmentHash"`
	LastHedgeTimestamp int64    `json:"lastHedgeTimestamp"`
}

func (s *Server) handleGetPosition(params []json.RawMessage) (interface{}, *RPCError) {
	var p positionParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	position, err := s.synth.GetPosition(owner)
	if err != nil {
		return nil, engineError(err)
	}
	if position == nil {
		return nil, nil
	}
	return &positionResult{
		Owner:              position.Owner.String(),
		CollateralAmounts:  position.CollateralAmounts,
		MintedDebt:         position.MintedDebt,
		CommitmentHash:     "0x" + hex.EncodeToString(position.CommitmentHash[:]),
		LastHedgeTimestamp: position.LastHedgeTimestamp,
	}, nil
}

type healthFactorParams struct {
	Owner   string   `json:"owner"`
	FeedIDs []string `json:"feedIds"`
}

func (s *Server) handleHealthFactor(params []json.RawMessage) (interface{}, *RPCError) {
	var p healthFactorParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	owner, rpcErr := parseAddress(p.Owner)
	if rpcErr != nil {
		return nil, rpcErr
	}
	hf, err := s.synth.HealthFactor(owner, p.FeedIDs, s.now())
	if err != nil {
		return nil, engineError(err)
	}
	// uint64 values exceed JSON's safe integer range, so report as string.
	return map[string]string{"healthFactor": strconv.FormatUint(hf, 10)}, nil
}

type maxMintableParams struct {
	Amounts []uint64 `json:"amounts"`
	FeedIDs []string `json:"feedIds"`
}

func (s *Server) handleMaxMintable(params []json.RawMessage) (interface{}, *RPCError) {
	var p maxMintableParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	max, err := s.synth.MaxMintable(p.Amounts, p.FeedIDs, s.now())
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"maxMintable": strconv.FormatUint(max, 10)}, nil
}

type submitOracleSampleParams struct {
	FeedID      string `json:"feedId"`
	Mantissa    int64  `json:"mantissa"`
	Exponent    int32  `json:"exponent"`
	PublishTime int64  `json:"publishTime"`
}

func (s *Server) handleSubmitOracleSample(params []json.RawMessage) (interface{}, *RPCError) {
	if s.oracleSink == nil {
		return nil, &RPCError{Code: codeServerError, Message: "oracle submissions not enabled"}
	}
	var p submitOracleSampleParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if strings.TrimSpace(p.FeedID) == "" {
		return nil, invalidParams("feedId must not be empty")
	}
	sample := oracle.PriceSample{
		Mantissa:    p.Mantissa,
		Exponent:    p.Exponent,
		PublishTime: p.PublishTime,
	}
	if err := s.oracleSink.PutSample(p.FeedID, sample); err != nil {
		return nil, engineError(err)
	}
	return map[string]bool{"accepted": true}, nil
}
