package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Veraticus/mood-journal/internal/common"
)

// StatusError reports a non-success HTTP status from the REST store.
type StatusError struct {
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rest store error (status %d): %s", e.StatusCode, e.Body)
}

// RESTConfig configures a RESTStore.
type RESTConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Table      string
}

// RESTStore talks to a PostgREST-compatible endpoint (for example Supabase's
// /rest/v1). Transport failures and 5xx/429 responses wrap
// common.ErrUnavailable so callers can treat them as network trouble.
type RESTStore struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewRESTStore creates a REST store client.
func NewRESTStore(cfg RESTConfig) (*RESTStore, error) {
	if err := validateString(cfg.BaseURL, "baseURL"); err != nil {
		return nil, err
	}
	table := cfg.Table
	if table == "" {
		table = "journal_entries"
	}
	endpoint, err := url.JoinPath(cfg.BaseURL, "rest", "v1", table)
	if err != nil {
		return nil, fmt.Errorf("invalid rest store url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &RESTStore{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
	}, nil
}

// InsertEntry posts a new row and returns the stored representation.
func (s *RESTStore) InsertEntry(ctx context.Context, row EntryRow) (EntryRow, error) {
	if err := validateContext(ctx); err != nil {
		return EntryRow{}, err
	}
	if err := validateEntryRow(row); err != nil {
		return EntryRow{}, err
	}
	row.ID = ""
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if len(row.Mood) == 0 {
		row.Mood = json.RawMessage("{}")
	}
	if row.MoodKeywords == nil {
		row.MoodKeywords = []string{}
	}

	body, err := json.Marshal(row)
	if err != nil {
		return EntryRow{}, fmt.Errorf("failed to marshal entry: %w", err)
	}

	var created []EntryRow
	if err := s.do(ctx, http.MethodPost, nil, body, &created); err != nil {
		return EntryRow{}, err
	}
	if len(created) == 0 {
		return EntryRow{}, fmt.Errorf("rest store returned no representation for inserted entry")
	}
	return created[0], nil
}

// SelectEntries fetches rows matching f, newest first.
func (s *RESTStore) SelectEntries(ctx context.Context, f RowFilter) ([]EntryRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	query := filterQuery(f)
	query.Set("select", "*")
	query.Set("order", "created_at.desc")

	var rows []EntryRow
	if err := s.do(ctx, http.MethodGet, query, nil, &rows); err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].MoodKeywords == nil {
			rows[i].MoodKeywords = []string{}
		}
	}
	return rows, nil
}

// DeleteEntries deletes rows matching f. Matching nothing is not an error.
func (s *RESTStore) DeleteEntries(ctx context.Context, f RowFilter) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDeleteFilter(f); err != nil {
		return err
	}
	return s.do(ctx, http.MethodDelete, filterQuery(f), nil, nil)
}

func filterQuery(f RowFilter) url.Values {
	query := url.Values{}
	if f.ID != "" {
		query.Set("id", "eq."+f.ID)
	}
	if f.UserID != "" {
		query.Set("user_id", "eq."+f.UserID)
	}
	return query
}

func (s *RESTStore) do(ctx context.Context, method string, query url.Values, body []byte, out any) error {
	target := s.endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", common.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", common.ErrUnavailable, statusErr)
		}
		return statusErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
