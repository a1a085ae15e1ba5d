package rpc

import (
	"encoding/hex"
	"encoding/json"
	"strconv"

	"synthchain/native/market"
	"synthchain/observability/metrics"
)

type marketCreateParams struct {
	ID             uint64 `json:"id"`
	Creator        string `json:"creator"`
	ResolutionFeed string `json:"resolutionFeed"`
	Question       string `json:"question"`
	ResolutionTime int64  `json:"resolutionTime"`
	ProofRequired  bool   `json:"proofRequired"`
}

type marketResult struct {
	ID             uint64 `json:"id"`
	Creator        string `json:"creator"`
	ResolutionFeed string `json:"resolutionFeed"`
	Question       string `json:"question"`
	YesPool        uint64 `json:"yesPool"`
	NoPool         uint64 `json:"noPool"`
	Commitment     string `json:"commitment"`
	ProofRequired  bool   `json:"proofRequired"`
	Resolved       bool   `json:"resolved"`
	Outcome        *bool  `json:"outcome,omitempty"`
	ResolutionTime int64  `json:"resolutionTime"`
}

func marketView(m *market.Market) *marketResult {
	return &marketResult{
		ID:             m.ID,
		Creator:        m.Creator.String(),
		ResolutionFeed: m.ResolutionFeed,
		Question:       m.Question,
		YesPool:        m.YesPool,
		NoPool:         m.NoPool,
		Commitment:     "0x" + hex.EncodeToString(m.Commitment[:]),
		ProofRequired:  m.ProofRequired,
		Resolved:       m.Resolved,
		Outcome:        m.Outcome,
		ResolutionTime: m.ResolutionTime,
	}
}

func (s *Server) handleMarketCreate(params []json.RawMessage) (interface{}, *RPCError) {
	var p marketCreateParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	creator, rpcErr := parseAddress(p.Creator)
	if rpcErr != nil {
		return nil, rpcErr
	}
	created, err := s.market.Create(p.ID, creator, p.ResolutionFeed, p.Question, p.ResolutionTime, p.ProofRequired, s.now())
	if err != nil {
		return nil, engineError(err)
	}
	return marketView(created), nil
}

type marketBetParams struct {
	ID     uint64 `json:"id"`
	Bettor string `json:"bettor"`
	Side   bool   `json:"side"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleMarketBet(params []json.RawMessage) (interface{}, *RPCError) {
	var p marketBetParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	bettor, rpcErr := parseAddress(p.Bettor)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if err := s.market.Bet(p.ID, bettor, p.Side, p.Amount); err != nil {
		return nil, engineError(err)
	}
	return map[string]bool{"accepted": true}, nil
}

type marketSettleParams struct {
	ID    uint64 `json:"id"`
	Proof string `json:"proof"`
}

func (s *Server) handleMarketSettle(params []json.RawMessage) (interface{}, *RPCError) {
	var p marketSettleParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	proof, rpcErr := parseHexBytes(p.Proof)
	if rpcErr != nil {
		return nil, rpcErr
	}
	outcome, err := s.market.Settle(p.ID, proof, s.now())
	if err != nil {
		return nil, engineError(err)
	}
	metrics.Engine().RecordSettlement(outcome)
	return map[string]bool{"outcome": outcome}, nil
}

type marketGetParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handleMarketGet(params []json.RawMessage) (interface{}, *RPCError) {
	var p marketGetParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	m, err := s.market.GetMarket(p.ID)
	if err != nil {
		return nil, engineError(err)
	}
	if m == nil {
		return nil, engineError(market.ErrMarketNotFound)
	}
	return marketView(m), nil
}

func (s *Server) handleImpliedProbability(params []json.RawMessage) (interface{}, *RPCError) {
	var p marketGetParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	m, err := s.market.GetMarket(p.ID)
	if err != nil {
		return nil, engineError(err)
	}
	if m == nil {
		return nil, engineError(market.ErrMarketNotFound)
	}
	yes, no := market.ImpliedProbability(m.YesPool, m.NoPool)
	return map[string]float64{"yes": yes, "no": no}, nil
}

type payoutParams struct {
	Stake       uint64 `json:"stake"`
	WinningPool uint64 `json:"winningPool"`
	LosingPool  uint64 `json:"losingPool"`
}

func (s *Server) handlePayout(params []json.RawMessage) (interface{}, *RPCError) {
	var p payoutParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	amount, err := market.Payout(p.Stake, p.WinningPool, p.LosingPool)
	if err != nil {
		return nil, engineError(err)
	}
	return map[string]string{"payout": strconv.FormatUint(amount, 10)}, nil
}
