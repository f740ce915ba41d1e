package ai

// launchSchemaDescription describes the ClickHouse schema used for NL→SQL prompting.
//
// Keeping it in sync with the table definitions created by ClickHouseStore.Init.
const launchSchemaDescription = `
Table: launch_events

Columns:
  - mint          String        -- Token mint address (unique per token)
  - name          String        -- Token name
  - symbol        String        -- Token ticker symbol
  - liquidity_sol Float64       -- Initial liquidity in SOL at launch
  - deployer      String        -- Wallet address that deployed the token
  - ts            DateTime64(3) -- Launch time (UTC)

Table: signals

Columns:
  - mint            String        -- Token mint address
  - liquidity_score Float64       -- 0-100, higher means deeper liquidity
  - volume_score    Float64       -- 0-100, higher means more 24h volume
  - momentum_score  Float64       -- -100..100, sign follows 24h price change
  - risk_score      Float64       -- 0-100, higher means riskier (fewer holders)
  - composite       Float64       -- Weighted blend of the four scores
  - recommendation  String        -- One of: strong_buy, buy, hold, sell, avoid
  - confidence      Float64       -- 0-1
  - ts              DateTime64(3) -- When the signal was computed (UTC)

Notes:
  - Join the tables on mint when a question spans launches and signals.
  - Time filters should use ts, e.g. ts >= now() - INTERVAL 24 HOUR.
  - A token can have many signal rows; use argMax(recommendation, ts) for the latest.
`
