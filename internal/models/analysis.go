package models

// Recommendation is the closed set of trade calls the signal engine emits.
type Recommendation string

const (
	RecommendStrongBuy Recommendation = "strong_buy"
	RecommendBuy       Recommendation = "buy"
	RecommendHold      Recommendation = "hold"
	RecommendSell      Recommendation = "sell"
	RecommendAvoid     Recommendation = "avoid"
)

// Analysis is the scoring output for one token. Confidence is derived from
// the composite score, never set independently.
type Analysis struct {
	Mint           string         `json:"mint"`
	LiquidityScore float64        `json:"liquidity_score"`
	VolumeScore    float64        `json:"volume_score"`
	MomentumScore  float64        `json:"momentum_score"`
	RiskScore      float64        `json:"risk_score"`
	Composite      float64        `json:"composite"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	Reasoning      string         `json:"reasoning"`
}
