package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"food-preorder/config"
)

// Remote talks to the hosted platform's documents API. The platform
// owns the wire protocol; this client follows it and maps its error
// codes onto the adapter's sentinels.
type Remote struct {
	endpoint string
	project  string
	key      string
	database string
	client   *http.Client
}

func NewRemote(cfg config.BackendConfig) *Remote {
	return &Remote{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		project:  cfg.Project,
		key:      cfg.APIKey,
		database: cfg.DatabaseID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *Remote) List(ctx context.Context, collection string, queries ...Query) (*DocumentList, error) {
	params := url.Values{}
	for _, q := range queries {
		encoded, err := encodeQuery(q)
		if err != nil {
			return nil, err
		}
		params.Add("queries[]", encoded)
	}
	path := r.documentsPath(collection)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := r.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Total     int               `json:"total"`
		Documents []json.RawMessage `json:"documents"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode document list: %w", err)
	}
	list := &DocumentList{Total: raw.Total}
	for _, rd := range raw.Documents {
		doc, err := parseDocument(rd)
		if err != nil {
			return nil, err
		}
		list.Documents = append(list.Documents, doc)
	}
	return list, nil
}

func (r *Remote) Create(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if id == "" {
		id = NewID()
	}
	payload, err := json.Marshal(map[string]any{"documentId": id, "data": data})
	if err != nil {
		return nil, fmt.Errorf("encode create payload: %w", err)
	}
	body, err := r.do(ctx, http.MethodPost, r.documentsPath(collection), payload)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Remote) Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	payload, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		return nil, fmt.Errorf("encode update payload: %w", err)
	}
	body, err := r.do(ctx, http.MethodPatch, r.documentsPath(collection)+"/"+url.PathEscape(id), payload)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(body)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Remote) Delete(ctx context.Context, collection, id string) error {
	_, err := r.do(ctx, http.MethodDelete, r.documentsPath(collection)+"/"+url.PathEscape(id), nil)
	return err
}

func (r *Remote) documentsPath(collection string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(r.database), url.PathEscape(collection))
}

func (r *Remote) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Appwrite-Project", r.project)
	if r.key != "" {
		req.Header.Set("X-Appwrite-Key", r.key)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call document store: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, remoteError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

func remoteError(status int, body []byte) error {
	var platform struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &platform)
	if platform.Message == "" {
		platform.Message = http.StatusText(status)
	}
	return &RemoteError{Status: status, Message: platform.Message}
}

// encodeQuery renders one query in the platform's JSON query syntax.
func encodeQuery(q Query) (string, error) {
	body := map[string]any{"method": string(q.Op)}
	switch q.Op {
	case OpEqual, OpGreaterEqual:
		body["attribute"] = q.Attribute
		body["values"] = q.Values
	case OpOrderAsc, OpOrderDesc:
		body["attribute"] = q.Attribute
	case OpLimit:
		body["values"] = []any{q.Count}
	default:
		return "", fmt.Errorf("unsupported query op %q", q.Op)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	return string(b), nil
}

// parseDocument splits a platform document into system fields and
// attributes; every key starting with "$" is system-owned.
func parseDocument(raw []byte) (Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Document{}, fmt.Errorf("decode document: %w", err)
	}

	var doc Document
	if id, ok := fields["$id"].(string); ok {
		doc.ID = id
	}
	doc.CreatedAt = parseTimestamp(fields["$createdAt"])
	doc.UpdatedAt = parseTimestamp(fields["$updatedAt"])

	doc.Data = map[string]any{}
	for k, v := range fields {
		if !strings.HasPrefix(k, "$") {
			doc.Data[k] = v
		}
	}
	return doc, nil
}

func parseTimestamp(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
