package api

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/MurLoper/structsim-ai-platform-sub001/internal/models"
)

// ListEntities fetches every record of kind. Both a bare list and a
// paginated {items: [...]} payload are accepted.
func (c *Client) ListEntities(ctx context.Context, kind models.Kind) ([]models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	payload, err := c.doRequest(ctx, nethttp.MethodGet, kind.Resource(), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind.Command(), err)
	}
	return toRecords(payload)
}

// GetEntity fetches one record by id.
func (c *Client) GetEntity(ctx context.Context, kind models.Kind, id int64) (models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	payload, err := c.doRequest(ctx, nethttp.MethodGet, entityPath(kind, id), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", kind.Label(), id, err)
	}
	rec, ok := toRecord(payload)
	if !ok {
		return nil, fmt.Errorf("get %s %d: unexpected payload %T", kind.Label(), id, payload)
	}
	return rec, nil
}

// CreateEntity posts a new record. The returned record is whatever the
// backend echoed, or nil when it sent no body.
func (c *Client) CreateEntity(ctx context.Context, kind models.Kind, data models.Record) (models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	payload, err := c.doRequest(ctx, nethttp.MethodPost, kind.Resource(), nil, data)
	if err != nil {
		return nil, err
	}
	rec, _ := toRecord(payload)
	return rec, nil
}

// UpdateEntity replaces the record with the given id.
func (c *Client) UpdateEntity(ctx context.Context, kind models.Kind, id int64, data models.Record) (models.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	payload, err := c.doRequest(ctx, nethttp.MethodPut, entityPath(kind, id), nil, data)
	if err != nil {
		return nil, err
	}
	rec, _ := toRecord(payload)
	return rec, nil
}

// DeleteEntity removes the record with the given id.
func (c *Client) DeleteEntity(ctx context.Context, kind models.Kind, id int64) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	_, err := c.doRequest(ctx, nethttp.MethodDelete, entityPath(kind, id), nil, nil)
	return err
}

// BaseData is the bulk payload of /config/base-data, keyed by kind.
// Kinds absent from the payload are absent from the map.
type BaseData = map[models.Kind][]models.Record

// GetBaseData loads every definition list in one call.
func (c *Client) GetBaseData(ctx context.Context) (BaseData, error) {
	payload, err := c.doRequest(ctx, nethttp.MethodGet, "/config/base-data", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("load base data: %w", err)
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("load base data: unexpected payload %T", payload)
	}

	out := make(BaseData)
	for _, kind := range models.AllKinds {
		key := kind.BaseDataKey()
		if key == "" {
			continue
		}
		raw, present := m[key]
		if !present {
			continue
		}
		records, err := toRecords(raw)
		if err != nil {
			return nil, fmt.Errorf("load base data: %s: %w", key, err)
		}
		out[kind] = records
	}
	return out, nil
}

func entityPath(kind models.Kind, id int64) string {
	return fmt.Sprintf("%s/%d", kind.Resource(), id)
}

func toRecord(v any) (models.Record, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return models.Record(m), true
}

func toRecords(v any) ([]models.Record, error) {
	if v == nil {
		return []models.Record{}, nil
	}
	if m, ok := v.(map[string]any); ok {
		items, present := m["items"]
		if !present {
			return nil, fmt.Errorf("expected a list, got an object")
		}
		v = items
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]models.Record, 0, len(list))
	for i, item := range list {
		rec, ok := toRecord(item)
		if !ok {
			return nil, fmt.Errorf("item %d: expected an object, got %T", i, item)
		}
		out = append(out, rec)
	}
	return out, nil
}
