package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wallet-history-indexer/internal/domain/entity"
	"wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/config"
	"wallet-history-indexer/internal/infrastructure/logger"
	"wallet-history-indexer/internal/infrastructure/metrics"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	actionTxList  = "txlist"
	actionTokenTx = "tokentx"

	// maxPageSize is the largest page the API accepts
	maxPageSize = 10000
	endBlock    = 99999999
)

// envelope is the status/message wrapper around every API response
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// apiRecord covers the fields of both txlist and tokentx results
type apiRecord struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	ContractAddress string `json:"contractAddress"`
	TokenName       string `json:"tokenName"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenDecimal    string `json:"tokenDecimal"`
	LogIndex        string `json:"logIndex"`
}

// Client fetches account history from an Etherscan-compatible ledger-history API
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	chainID    int64
	pageSize   int
	maxPages   int
	backoff    Backoff
	limiter    *rate.Limiter
	logger     *logger.Logger
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSleeper replaces the backoff wait, used by tests to observe delays
func WithSleeper(sleep Sleeper) Option {
	return func(c *Client) { c.backoff.Sleep = sleep }
}

// WithLimiter replaces the request rate limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a new ledger-history client
func NewClient(cfg *config.ExplorerConfig, log *logger.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		chainID:    cfg.ChainID,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		backoff:    defaultBackoff(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     log.WithComponent("explorer-client"),
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = 15 * time.Second
	}
	if c.pageSize <= 0 || c.pageSize > maxPageSize {
		c.pageSize = 200
	}
	if c.maxPages <= 0 {
		c.maxPages = 1
	}
	if cfg.MaxAttempts > 0 {
		c.backoff.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialBackoff > 0 {
		c.backoff.Initial = cfg.InitialBackoff
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the source in logs
func (c *Client) Name() string {
	return "explorer"
}

// Kinds lists the record kinds the client produces
func (c *Client) Kinds() []entity.RecordKind {
	return []entity.RecordKind{entity.RecordKindNative, entity.RecordKindToken}
}

// Fetch retrieves general and token-transfer history for account and merges
// them newest first. Each kind succeeds or fails on its own.
func (c *Client) Fetch(ctx context.Context, account string) (*service.FetchResult, error) {
	result := &service.FetchResult{Failures: map[entity.RecordKind]error{}}

	if account == "" {
		c.logger.Debug("No account connected, skipping history fetch")
		return result, nil
	}
	if c.apiKey == "" {
		c.logger.Warn("Ledger-history API key is not configured")
		return nil, service.ErrMissingCredential
	}
	if !common.IsHexAddress(account) {
		return nil, fmt.Errorf("%w: %q", service.ErrInvalidAddress, account)
	}

	kinds := []struct {
		action string
		kind   entity.RecordKind
	}{
		{actionTxList, entity.RecordKindNative},
		{actionTokenTx, entity.RecordKindToken},
	}

	records := make([][]*entity.RawLedgerRecord, len(kinds))
	failures := make([]error, len(kinds))

	var g errgroup.Group
	for i, k := range kinds {
		g.Go(func() error {
			records[i], failures[i] = c.fetchKind(ctx, k.action, k.kind, account)
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for i, k := range kinds {
		if failures[i] != nil {
			c.logger.Warn("History fetch failed for record kind",
				zap.String("action", k.action),
				zap.String("account", account),
				zap.Error(failures[i]))
			result.Failures[k.kind] = failures[i]
			errs = append(errs, failures[i])
			continue
		}
		result.Records = append(result.Records, records[i]...)
	}

	if len(errs) == len(kinds) {
		return nil, errors.Join(errs...)
	}

	entity.SortNewestFirst(result.Records)

	c.logger.Info("Fetched account history",
		zap.String("account", account),
		zap.Int("records", len(result.Records)),
		zap.Int("failed_kinds", len(result.Failures)))

	return result, nil
}

// fetchKind pages through one record kind; a failure on any page fails the kind
func (c *Client) fetchKind(ctx context.Context, action string, kind entity.RecordKind, account string) ([]*entity.RawLedgerRecord, error) {
	var out []*entity.RawLedgerRecord

	for page := 1; page <= c.maxPages; page++ {
		raw, err := c.fetchPageWithRetry(ctx, action, account, page)
		if err != nil {
			return nil, err
		}

		for i := range raw {
			out = append(out, toLedgerRecord(kind, &raw[i]))
		}

		if len(raw) < c.pageSize {
			break
		}
	}

	return out, nil
}

// fetchPageWithRetry retries rate-limited requests with exponential backoff
func (c *Client) fetchPageWithRetry(ctx context.Context, action, account string, page int) ([]apiRecord, error) {
	for attempt := 1; attempt <= c.backoff.MaxAttempts; attempt++ {
		records, err := c.fetchPage(ctx, action, account, page)
		if err == nil {
			metrics.ExplorerRequestsTotal.WithLabelValues(action, "ok").Inc()
			return records, nil
		}

		var rateErr *RateLimitError
		if !errors.As(err, &rateErr) {
			metrics.ExplorerRequestsTotal.WithLabelValues(action, "error").Inc()
			return nil, err
		}
		metrics.ExplorerRequestsTotal.WithLabelValues(action, "rate_limited").Inc()

		if attempt == c.backoff.MaxAttempts {
			break
		}

		delay := c.backoff.Delay(attempt)
		c.logger.Warn("Rate limited, backing off",
			zap.String("action", action),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay))
		metrics.ExplorerBackoffsTotal.WithLabelValues(action).Inc()

		if err := c.backoff.Sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("explorer %s: %w", action, err)
		}
	}

	return nil, fmt.Errorf("explorer %s: %w", action, ErrRetriesExhausted)
}

// fetchPage issues one request and interprets the response envelope
func (c *Client) fetchPage(ctx context.Context, action, account string, page int) ([]apiRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("explorer %s: %w", action, err)
	}

	params := url.Values{}
	params.Set("chainid", strconv.FormatInt(c.chainID, 10))
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", account)
	params.Set("startblock", "0")
	params.Set("endblock", strconv.Itoa(endBlock))
	params.Set("page", strconv.Itoa(page))
	params.Set("offset", strconv.Itoa(c.pageSize))
	params.Set("sort", "desc")
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("explorer %s: create request: %w", action, err)
	}

	c.logger.Debug("Requesting account history",
		zap.String("action", action),
		zap.String("address", account),
		zap.Int("page", page))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer %s: request failed: %w", action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("explorer %s: read response: %w", action, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Action: action, Message: http.StatusText(resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Action: action, HTTPStatus: resp.StatusCode, Result: strings.TrimSpace(string(body))}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("explorer %s: decode response: %w", action, err)
	}

	return parseEnvelope(action, &env)
}

func parseEnvelope(action string, env *envelope) ([]apiRecord, error) {
	var resultText string
	_ = json.Unmarshal(env.Result, &resultText)

	if isRateLimited(env.Message) || isRateLimited(resultText) {
		msg := resultText
		if msg == "" {
			msg = env.Message
		}
		return nil, &RateLimitError{Action: action, Message: msg}
	}

	if env.Status != "1" {
		if isNoRecords(env.Message) || isNoRecords(resultText) {
			return nil, nil
		}
		return nil, &APIError{Action: action, Status: env.Status, Message: env.Message, Result: resultText}
	}

	var records []apiRecord
	if err := json.Unmarshal(env.Result, &records); err != nil {
		return nil, fmt.Errorf("explorer %s: decode result: %w", action, err)
	}
	return records, nil
}

func isRateLimited(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "rate limit")
}

func isNoRecords(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "no transactions found") || strings.Contains(lower, "no records found")
}

// toLedgerRecord converts an API record into the tagged raw variant
func toLedgerRecord(kind entity.RecordKind, r *apiRecord) *entity.RawLedgerRecord {
	rec := &entity.RawLedgerRecord{
		Kind:        kind,
		BlockNumber: r.BlockNumber,
		TimeStamp:   r.TimeStamp,
		Hash:        r.Hash,
		From:        r.From,
		To:          r.To,
		Value:       r.Value,
	}

	switch kind {
	case entity.RecordKindNative:
		rec.TokenName = entity.NativeName
		rec.TokenSymbol = entity.NativeSymbol
		rec.TokenDecimal = strconv.Itoa(entity.NativeDecimals)
	case entity.RecordKindToken:
		rec.ContractAddress = r.ContractAddress
		rec.TokenName = r.TokenName
		rec.TokenSymbol = r.TokenSymbol
		rec.TokenDecimal = r.TokenDecimal
		rec.LogIndex = r.LogIndex
	}

	return rec
}
