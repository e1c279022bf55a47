package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relaydesk-hq/airtable-delete-relay/internal/domain"
	"github.com/relaydesk-hq/airtable-delete-relay/pkg/httpclient"
)

// MaxBatchSize is the largest number of record ids Airtable accepts in one
// batch-delete call. Longer inputs are truncated, not rejected.
const MaxBatchSize = 10

const genericErrorMessage = "request failed"

// ClientConfig carries the settings the client needs to reach the Airtable API.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.airtable.com/v0.
	BaseURL string
	// Token is the Personal Access Token sent as a bearer credential.
	Token string
	// Timeout bounds each outbound call; zero leaves it unbounded.
	Timeout time.Duration
}

// Client issues DELETE calls against the Airtable REST API and normalizes both
// success and error bodies into a uniform shape. It holds no state between calls.
type Client struct {
	baseURL string
	token   string
	http    httpclient.Client
	log     Logger
}

// New builds a client. A nil http client gets the default resty transport;
// a nil logger gets a no-op.
func New(cfg ClientConfig, client httpclient.Client, log Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("airtable base URL is required")
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("airtable token is required")
	}
	if client == nil {
		client = httpclient.NewRestyClient(cfg.Timeout)
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    client,
		log:     ensureLogger(log),
	}, nil
}

// DeleteRecord deletes a single record and returns its post-delete state as
// reported by Airtable. A missing record surfaces as KindNotFound; any other
// non-success status as KindAPI.
func (c *Client) DeleteRecord(ctx context.Context, baseID, table, recordID string) (domain.Record, error) {
	if err := requireFields(map[string]string{
		"baseID":   baseID,
		"table":    table,
		"recordID": recordID,
	}); err != nil {
		return domain.Record{}, err
	}

	target := fmt.Sprintf("%s/%s/%s/%s",
		c.baseURL, url.PathEscape(baseID), url.PathEscape(table), url.PathEscape(recordID))

	resp, err := c.http.Delete(ctx, target, c.headers())
	if err != nil {
		c.logFailure("record delete transport failed", recordID, err)
		return domain.Record{}, &Error{Kind: KindTransport, Message: err.Error()}
	}

	if !isSuccess(resp.StatusCode()) {
		msg := remoteMessage(resp.Body())
		if resp.StatusCode() == http.StatusNotFound {
			cerr := &Error{Kind: KindNotFound, Status: resp.StatusCode(), RecordID: recordID, Message: msg}
			c.logFailure("record delete rejected", recordID, cerr)
			return domain.Record{}, cerr
		}
		cerr := &Error{Kind: KindAPI, Status: resp.StatusCode(), RecordID: recordID, Message: msg}
		c.logFailure("record delete rejected", recordID, cerr)
		return domain.Record{}, cerr
	}

	var rec domain.Record
	if err := json.Unmarshal(resp.Body(), &rec); err != nil {
		c.logFailure("record delete response unreadable", recordID, err)
		return domain.Record{}, &Error{Kind: KindTransport, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return rec, nil
}

// DeleteRecords deletes up to MaxBatchSize records in one call. An empty input
// short-circuits without touching the network; a longer input is truncated to
// the first MaxBatchSize ids. Batch failures do not distinguish a not-found
// sub-case: every non-success status maps to KindAPI.
func (c *Client) DeleteRecords(ctx context.Context, baseID, table string, recordIDs []string) ([]domain.Record, error) {
	if err := requireFields(map[string]string{
		"baseID": baseID,
		"table":  table,
	}); err != nil {
		return nil, err
	}

	if len(recordIDs) == 0 {
		return nil, nil
	}
	if len(recordIDs) > MaxBatchSize {
		c.log.WarnObj("batch delete truncated", "batch_truncation", map[string]any{
			"requested": len(recordIDs),
			"sent":      MaxBatchSize,
			"dropped":   len(recordIDs) - MaxBatchSize,
		})
		recordIDs = recordIDs[:MaxBatchSize]
	}

	params := url.Values{}
	for _, id := range recordIDs {
		params.Add("records[]", id)
	}
	target := fmt.Sprintf("%s/%s/%s?%s",
		c.baseURL, url.PathEscape(baseID), url.PathEscape(table), params.Encode())

	resp, err := c.http.Delete(ctx, target, c.headers())
	if err != nil {
		c.logFailure("batch delete transport failed", "", err)
		return nil, &Error{Kind: KindTransport, Message: err.Error()}
	}

	if !isSuccess(resp.StatusCode()) {
		cerr := &Error{Kind: KindAPI, Status: resp.StatusCode(), Message: remoteMessage(resp.Body())}
		c.logFailure("batch delete rejected", "", cerr)
		return nil, cerr
	}

	var list domain.RecordList
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		c.logFailure("batch delete response unreadable", "", err)
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return list.Records, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + c.token}
}

func (c *Client) logFailure(msg, recordID string, err error) {
	fields := map[string]any{"error": err.Error()}
	if recordID != "" {
		fields["record_id"] = recordID
	}
	c.log.ErrorObj(msg, "airtable_error", fields)
}

// requireFields rejects blank inputs before anything leaves the process.
func requireFields(fields map[string]string) error {
	for name, val := range fields {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// remoteMessage pulls the message out of Airtable's {error:{type,message}}
// envelope, falling back to a generic text when the body has another shape.
func remoteMessage(body []byte) string {
	var envelope domain.APIErrorBody
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Message == "" {
		return genericErrorMessage
	}
	return envelope.Error.Message
}
