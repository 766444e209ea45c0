package feed

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/linemk/qris-shop/internal/domain/models"
)

// Options параметры доступа к фиду мутаций
type Options struct {
	URL          string
	AuthUsername string
	AuthToken    string
	Timeout      time.Duration
	VerifySSL    bool
}

// Client забирает свежие транзакции у агрегатора платежей
type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	opts       Options
}

type fetchRequest struct {
	AuthUsername string `json:"auth_username"`
	AuthToken    string `json:"auth_token"`
}

func NewClient(log *slog.Logger, opts Options) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // отключается только явно в конфиге
	}

	return &Client{
		log: log,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts: opts,
	}
}

// Fetch отправляет учётные данные и возвращает нормализованный список транзакций.
// Ошибка транспорта, статус вне 2xx или нечитаемое тело - ошибка всего пакета.
func (c *Client) Fetch(ctx context.Context) ([]models.Transaction, error) {
	const op = "feed.Client.Fetch"

	payload, err := json.Marshal(fetchRequest{
		AuthUsername: c.opts.AuthUsername,
		AuthToken:    c.opts.AuthToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// тело читаем частично, только для лога
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var body map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: failed to decode response: %w", op, err)
	}

	txs, err := Normalize(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unmatched := 0
	for _, tx := range txs {
		if tx.Amount == nil {
			unmatched++
		}
	}
	c.log.Debug("transactions fetched",
		slog.String("op", op),
		slog.Int("count", len(txs)),
		slog.Int("without_amount", unmatched),
	)
	return txs, nil
}
