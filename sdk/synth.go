package sdk

import "context"

// Position mirrors the synth_getPosition result.
type Position struct {
	Owner              string   `json:"owner"`
	CollateralAmounts  []uint64 `json:"collateralAmounts"`
	MintedDebt         uint64   `json:"mintedDebt"`
	CommitmentHash     string   `json:"commitmentHash"`
	LastHedgeTimestamp int64    `json:"lastHedgeTimestamp"`
}

// Config mirrors the synth_getConfig result.
type Config struct {
	Admin                string   `json:"admin"`
	MinCollateralRatio   uint64   `json:"minCollateralRatio"`
	HedgeIntervalSeconds uint64   `json:"hedgeIntervalSeconds"`
	Collaterals          []string `json:"collaterals"`
	OracleFeeds          []string `json:"oracleFeeds"`
	SynthMint            string   `json:"synthMint"`
}

// Market mirrors the market_get result.
type Market struct {
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

// GetConfig fetches the protocol configuration.
func (c *Client) GetConfig(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := c.Call(ctx, "synth_getConfig", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetPosition fetches the position for a bech32 owner address, nil when the
// owner has none.
func (c *Client) GetPosition(ctx context.Context, owner string) (*Position, error) {
	var position *Position
	if err := c.Call(ctx, "synth_getPosition", map[string]string{"owner": owner}, &position); err != nil {
		return nil, err
	}
	return position, nil
}

// Mint locks collateral and mints SYNTH against it.
func (c *Client) Mint(ctx context.Context, owner string, collateralIndex int, deposit, mint uint64, feedID string) error {
	return c.Call(ctx, "synth_mint", map[string]interface{}{
		"owner":           owner,
		"collateralIndex": collateralIndex,
		"depositAmount":   deposit,
		"mintAmount":      mint,
		"feedId":          feedID,
	}, nil)
}

// Burn retires minted debt.
func (c *Client) Burn(ctx context.Context, owner string, amount uint64, feedIDs []string) error {
	return c.Call(ctx, "synth_burn", map[string]interface{}{
		"owner":   owner,
		"amount":  amount,
		"feedIds": feedIDs,
	}, nil)
}

// HealthFactor fetches the owner's health factor as a decimal string.
func (c *Client) HealthFactor(ctx context.Context, owner string, feedIDs []string) (string, error) {
	var result map[string]string
	err := c.Call(ctx, "synth_healthFactor", map[string]interface{}{
		"owner":   owner,
		"feedIds": feedIDs,
	}, &result)
	if err != nil {
		return "", err
	}
	return result["healthFactor"], nil
}

// SubmitOracleSample publishes a raw price sample for a feed.
func (c *Client) SubmitOracleSample(ctx context.Context, feedID string, mantissa int64, exponent int32, publishTime int64) error {
	return c.Call(ctx, "synth_submitOracleSample", map[string]interface{}{
		"feedId":      feedID,
		"mantissa":    mantissa,
		"exponent":    exponent,
		"publishTime": publishTime,
	}, nil)
}

// GetMarket fetches a market by id.
func (c *Client) GetMarket(ctx context.Context, id uint64) (*Market, error) {
	var m Market
	if err := c.Call(ctx, "market_get", map[string]uint64{"id": id}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Bet stakes on one side of a market; side true backs yes.
func (c *Client) Bet(ctx context.Context, id uint64, bettor string, side bool, amount uint64) error {
	return c.Call(ctx, "market_bet", map[string]interface{}{
		"id":     id,
		"bettor": bettor,
		"side":   side,
		"amount": amount,
	}, nil)
}
