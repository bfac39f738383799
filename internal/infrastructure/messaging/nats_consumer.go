package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"wallet-history-indexer/internal/infrastructure/config"
	"wallet-history-indexer/internal/infrastructure/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConnection owns the shared NATS connection
type NATSConnection struct {
	mu     sync.RWMutex
	conn   *nats.Conn
	config *config.NATSConfig
	logger *logger.Logger
}

// NewNATSConnection creates a new, not yet connected, NATS connection
func NewNATSConnection(cfg *config.NATSConfig, logger *logger.Logger) *NATSConnection {
	return &NATSConnection{
		config: cfg,
		logger: logger.WithComponent("nats"),
	}
}

// Connect connects to the NATS server; a disabled configuration is a no-op
func (n *NATSConnection) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("wallet-history-indexer"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()
	return nil
}

// Conn returns the live connection or nil when NATS is disabled
func (n *NATSConnection) Conn() *nats.Conn {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.conn
}

// Subject builds a subject under the configured prefix
func (n *NATSConnection) Subject(name string) string {
	return fmt.Sprintf("%s.%s", n.config.SubjectPrefix, name)
}

// Disconnect drains and closes the connection
func (n *NATSConnection) Disconnect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return nil
	}
	if err := n.conn.Drain(); err != nil {
		n.conn.Close()
	}
	n.conn = nil
	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConnection) IsConnected() bool {
	conn := n.Conn()
	return conn != nil && conn.IsConnected()
}

// AccountSetter receives the account announced by the wallet
type AccountSetter interface {
	Set(account string) bool
}

type accountMessage struct {
	Address string `json:"address"`
}

// AccountWatcher consumes active-account announcements from {prefix}.account
type AccountWatcher struct {
	conn     *NATSConnection
	accounts AccountSetter
	sub      *nats.Subscription
	logger   *logger.Logger
}

// NewAccountWatcher creates a new account watcher
func NewAccountWatcher(conn *NATSConnection, accounts AccountSetter, logger *logger.Logger) *AccountWatcher {
	return &AccountWatcher{
		conn:     conn,
		accounts: accounts,
		logger:   logger.WithComponent("account-watcher"),
	}
}

// Start subscribes to account announcements
func (w *AccountWatcher) Start() error {
	nc := w.conn.Conn()
	if nc == nil {
		w.logger.Info("NATS not connected, account watcher disabled")
		return nil
	}

	subject := w.conn.Subject("account")
	queueGroup := w.conn.config.ConsumerGroup

	w.logger.Info("Setting up account subscription",
		zap.String("subject", subject),
		zap.String("queue_group", queueGroup))

	var (
		sub *nats.Subscription
		err error
	)
	if queueGroup != "" {
		sub, err = nc.QueueSubscribe(subject, queueGroup, w.handleMessage)
	} else {
		sub, err = nc.Subscribe(subject, w.handleMessage)
	}
	if err != nil {
		w.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	w.sub = sub
	return nil
}

// Stop removes the subscription
func (w *AccountWatcher) Stop() error {
	if w.sub == nil {
		return nil
	}
	err := w.sub.Unsubscribe()
	w.sub = nil
	return err
}

// handleMessage applies one account announcement; an empty address means disconnected
func (w *AccountWatcher) handleMessage(msg *nats.Msg) {
	var m accountMessage
	if err := json.Unmarshal(msg.Data, &m); err != nil {
		w.logger.Error("Failed to unmarshal account message", zap.Error(err))
		respond(msg, "ERROR: failed to unmarshal")
		return
	}

	address := strings.TrimSpace(m.Address)
	if address != "" && !common.IsHexAddress(address) {
		w.logger.Warn("Ignoring invalid account address", zap.String("address", address))
		respond(msg, "ERROR: invalid address")
		return
	}

	changed := w.accounts.Set(address)
	w.logger.Debug("Account announcement processed",
		zap.String("address", address),
		zap.Bool("changed", changed))
	respond(msg, "OK")
}

func respond(msg *nats.Msg, body string) {
	if msg.Reply != "" {
		_ = msg.Respond([]byte(body))
	}
}
