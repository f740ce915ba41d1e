package ai

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// openRouterBaseURL points langchaingo's OpenAI client at OpenRouter.
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultModel      = "deepseek/deepseek-chat-v3.1:free"

	// maxResultRows caps how many rows are fed back to the model. The
	// signals table grows without bound and the summary prompt only
	// needs a window.
	maxResultRows = 200
)

// allowedTables is the whitelist enforced on generated SQL.
var allowedTables = []string{"launch_events", "signals"}

// AgentConfig holds configuration for the AI agent.
type AgentConfig struct {
	// ClickHouse connection settings.
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// OpenRouter / LLM settings.
	OpenRouterAPIKey string
	// Model name as understood by OpenRouter, e.g. "deepseek/deepseek-chat-v3.1:free".
	Model string

	Logger *logrus.Logger
}

// Agent answers natural language questions about launches and signals by
// generating ClickHouse SQL and summarising the query results.
type Agent struct {
	llm    llms.Model
	db     *sql.DB
	logger *logrus.Logger
}

// NewAgent creates a new Agent with its own ClickHouse and LLM clients.
func NewAgent(ctx context.Context, cfg AgentConfig) (*Agent, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	llm, err := openai.New(
		openai.WithToken(cfg.OpenRouterAPIKey),
		openai.WithBaseURL(openRouterBaseURL),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenRouter LLM: %w", err)
	}

	// database/sql wrapper so rows can be scanned generically.
	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{cfg.ClickHouseAddr},
		Auth: clickhouse.Auth{
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		},
	})
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse from AI agent: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{
		"addr":     cfg.ClickHouseAddr,
		"database": cfg.ClickHouseDatabase,
		"model":    cfg.Model,
	}).Info("initialized AI agent")

	return &Agent{llm: llm, db: db, logger: cfg.Logger}, nil
}

// Close closes underlying resources.
func (a *Agent) Close() error {
	if a.db != nil {
		a.logger.Debug("closing AI agent ClickHouse connection")
		return a.db.Close()
	}
	return nil
}

// AskResult is the structured result of an Ask call.
type AskResult struct {
	SQL    string
	Answer string
}

// Ask takes a natural language question, generates SQL, executes it, and
// summarises the result.
func (a *Agent) Ask(ctx context.Context, question string) (*AskResult, error) {
	sqlQuery, err := a.generateSQL(ctx, question)
	if err != nil {
		return nil, err
	}

	rowsJSON, truncated, err := a.runQuery(ctx, sqlQuery)
	if err != nil {
		return nil, err
	}

	answer, err := a.summariseResult(ctx, question, sqlQuery, rowsJSON, truncated)
	if err != nil {
		return nil, err
	}

	return &AskResult{SQL: sqlQuery, Answer: answer}, nil
}

// generateSQL asks the LLM for a single safe SELECT over the launch tables.
func (a *Agent) generateSQL(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`You are a ClickHouse SQL generator for a Solana token launch feed.

Schema:
%s

Write one ClickHouse SELECT statement that answers the question below.

Rules:
- Output only the SQL. No commentary, no code fences.
- Query launch_events and/or signals. Join on mint when the question spans both.
- Filter time ranges on the ts column.
- Prefer aggregates over raw row dumps.
- Use ORDER BY with LIMIT for "top" or "biggest" style questions.
- Read-only. Never INSERT, UPDATE, DELETE, DROP, ALTER, CREATE or TRUNCATE.

Question:
%s`, launchSchemaDescription, question)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		prompt,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("LLM SQL generation failed: %w", err)
	}

	sqlQuery := sanitizeSQL(resp)
	if err := validateSQL(sqlQuery); err != nil {
		return "", err
	}

	a.logger.WithField("sql", sqlQuery).Debug("generated SQL from question")
	return sqlQuery, nil
}

// runQuery executes the generated SQL and encodes up to maxResultRows rows as
// JSON. The bool reports whether the result set was cut off.
func (a *Agent) runQuery(ctx context.Context, sqlQuery string) (string, bool, error) {
	rows, err := a.db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return "", false, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", false, fmt.Errorf("failed to get columns: %w", err)
	}

	out := make([]map[string]any, 0, 16)
	truncated := false
	for rows.Next() {
		if len(out) >= maxResultRows {
			truncated = true
			break
		}

		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return "", false, fmt.Errorf("failed to scan row: %w", err)
		}

		rowMap := make(map[string]any, len(cols))
		for i, col := range cols {
			rowMap[col] = values[i]
		}
		out = append(out, rowMap)
	}
	if err := rows.Err(); err != nil {
		return "", false, fmt.Errorf("row iteration error: %w", err)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	return string(data), truncated, nil
}

// summariseResult asks the LLM to answer the question given SQL + JSON results.
func (a *Agent) summariseResult(ctx context.Context, question, sqlQuery, rowsJSON string, truncated bool) (string, error) {
	truncNote := ""
	if truncated {
		truncNote = fmt.Sprintf("Note: only the first %d rows were kept. Say the result was truncated.\n\n", maxResultRows)
	}

	prompt := fmt.Sprintf(`You are an analyst for a Solana token launch and signal feed.

Question:
%s

SQL that was executed:
%s

Result rows as JSON (may be empty):
%s

%sAnswer the question directly.
- If there are no rows, say no matching data was found.
- Keep it short, a few bullets or sentences with the key numbers.
- Round liquidity figures and scores sensibly.
- Do not repeat the raw JSON.`, question, sqlQuery, rowsJSON, truncNote)

	resp, err := llms.GenerateFromSinglePrompt(
		ctx,
		a.llm,
		prompt,
		llms.WithMaxTokens(512),
	)
	if err != nil {
		return "", fmt.Errorf("LLM summarisation failed: %w", err)
	}

	return strings.TrimSpace(resp), nil
}

// sanitizeSQL strips markdown fences and trailing semicolons from LLM output.
func sanitizeSQL(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
		if len(s) >= 3 && strings.EqualFold(s[:3], "sql") {
			s = s[3:]
		}
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	return strings.TrimSpace(s)
}

// validateSQL enforces a conservative safety policy for generated SQL.
func validateSQL(s string) error {
	if s == "" {
		return fmt.Errorf("empty SQL generated by LLM")
	}

	upper := strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("only SELECT queries are allowed")
	}
	if strings.Contains(s, ";") {
		return fmt.Errorf("multiple statements are not allowed")
	}

	for _, kw := range []string{
		"INSERT ", "UPDATE ", "DELETE ", "DROP ", "ALTER ", "TRUNCATE ",
		"CREATE ", "RENAME ", "ATTACH ", "DETACH ",
	} {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("disallowed SQL keyword %q in generated query", strings.TrimSpace(kw))
		}
	}

	for _, table := range allowedTables {
		if strings.Contains(upper, strings.ToUpper(table)) {
			return nil
		}
	}
	return fmt.Errorf("query must reference one of: %s", strings.Join(allowedTables, ", "))
}
