package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/wardenhq/warden/internal/constraint"
)

// ErrUnavailable marks a memory-service failure (timeout or server error).
// Surfaced as a hard failure; retry policy belongs to the caller.
var ErrUnavailable = errors.New("memory service unavailable")

// recordType tags constraint records in the shared memory service namespace.
const recordType = "policy_constraint"

// RemoteStore talks to the memory service over its JSON API. Records are
// stored as durable memory items under (namespace, user, type).
type RemoteStore struct {
	endpoint  string
	apiKey    string
	namespace string
	client    *http.Client
}

// NewRemoteStore builds a client for the service at endpoint. Calls are
// bounded by timeout; past it the call fails.
func NewRemoteStore(endpoint, apiKey, namespace string, timeout time.Duration) *RemoteStore {
	return &RemoteStore{
		endpoint:  strings.TrimRight(endpoint, "/"),
		apiKey:    apiKey,
		namespace: namespace,
		client:    &http.Client{Timeout: timeout},
	}
}

// Close is a no-op; the store holds no persistent connection state.
func (s *RemoteStore) Close() error { return nil }

type storePayload struct {
	Namespace string            `json:"namespace"`
	UserID    string            `json:"user_id"`
	Type      string            `json:"type"`
	Content   constraint.Record `json:"content"`
}

// Put upserts the record as a memory item, keyed by its id.
func (s *RemoteStore) Put(ctx context.Context, userID string, rec constraint.Record) error {
	ctx, span := tracer.Start(ctx, "memory.remote.put")
	span.SetAttributes(attribute.String("constraint.id", rec.ID))
	defer span.End()

	body, err := json.Marshal(storePayload{
		Namespace: s.namespace,
		UserID:    userID,
		Type:      recordType,
		Content:   rec.Normalize(),
	})
	if err != nil {
		return fmt.Errorf("encoding memory payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/memories", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building memory store request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("storing constraint %s: %v: %w", rec.ID, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		span.RecordError(ErrUnavailable)
		return fmt.Errorf("memory store failed (%d): %s: %w", resp.StatusCode, detail, ErrUnavailable)
	}
	return nil
}

type listResponse struct {
	Items []struct {
		Content map[string]any `json:"content"`
	} `json:"items"`
}

// List fetches the user's constraint records. Loose item shapes normalize
// through constraint.DecodeRecord.
func (s *RemoteStore) List(ctx context.Context, userID string) ([]constraint.Record, error) {
	ctx, span := tracer.Start(ctx, "memory.remote.list")
	defer span.End()

	q := url.Values{
		"namespace": {s.namespace},
		"user_id":   {userID},
		"type":      {recordType},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"/memories?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building memory list request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing constraints for %s: %v: %w", userID, err, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		span.RecordError(ErrUnavailable)
		return nil, fmt.Errorf("memory list failed (%d): %s: %w", resp.StatusCode, detail, ErrUnavailable)
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decoding memory list response: %w", err)
	}

	out := make([]constraint.Record, 0, len(lr.Items))
	for _, item := range lr.Items {
		out = append(out, constraint.DecodeRecord(item.Content))
	}
	span.SetAttributes(attribute.Int("memory.records", len(out)))
	return out, nil
}

func (s *RemoteStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
}
