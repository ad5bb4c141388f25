package lark

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Record is one Base row as returned by the API.
type Record struct {
	RecordID string                 `json:"record_id"`
	Fields   map[string]interface{} `json:"fields"`
}

// RecordPage is the list payload, passed through unchanged.
type RecordPage struct {
	HasMore   bool     `json:"has_more"`
	PageToken string   `json:"page_token"`
	Total     int      `json:"total"`
	Items     []Record `json:"items"`
}

type ListRecordsRequest struct {
	PageSize  int
	PageToken string
	Filter    string
	Sort      string
}

// TableField describes a column to create.
type TableField struct {
	FieldName   string                 `json:"field_name"`
	Type        int                    `json:"type"`
	Description *FieldDescription      `json:"description,omitempty"`
	Property    map[string]interface{} `json:"property,omitempty"`
}

type FieldDescription struct {
	Text string `json:"text"`
}

type CreatedTable struct {
	TableID       string   `json:"table_id"`
	DefaultViewID string   `json:"default_view_id"`
	FieldIDList   []string `json:"field_id_list"`
}

type CreatedField struct {
	FieldID   string `json:"field_id"`
	FieldName string `json:"field_name"`
	Type      int    `json:"type"`
}

func recordsPath(appToken, tableID string) string {
	return fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/records",
		url.PathEscape(appToken), url.PathEscape(tableID))
}

func (c *Client) ListRecords(ctx context.Context, appToken, tableID string, req ListRecordsRequest) (*RecordPage, error) {
	query := url.Values{}
	if req.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(req.PageSize))
	}
	if req.PageToken != "" {
		query.Set("page_token", req.PageToken)
	}
	if req.Filter != "" {
		query.Set("filter", req.Filter)
	}
	if req.Sort != "" {
		query.Set("sort", req.Sort)
	}

	var page RecordPage
	if err := c.call(ctx, "list_records", "Failed to list records", http.MethodGet,
		recordsPath(appToken, tableID), query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetRecord(ctx context.Context, appToken, tableID, recordID string) (*Record, error) {
	var data struct {
		Record Record `json:"record"`
	}
	if err := c.call(ctx, "get_record", "Failed to get record", http.MethodGet,
		recordsPath(appToken, tableID)+"/"+url.PathEscape(recordID), nil, nil, &data); err != nil {
		return nil, err
	}
	return &data.Record, nil
}

type recordBody struct {
	Fields map[string]interface{} `json:"fields"`
}

func idempotencyQuery() url.Values {
	query := url.Values{}
	query.Set("client_token", uuid.NewString())
	return query
}

func (c *Client) CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]interface{}) (*Record, error) {
	var data struct {
		Record Record `json:"record"`
	}
	if err := c.call(ctx, "create_record", "Failed to create record", http.MethodPost,
		recordsPath(appToken, tableID), idempotencyQuery(), recordBody{Fields: fields}, &data); err != nil {
		return nil, err
	}
	return &data.Record, nil
}

func (c *Client) BatchCreateRecords(ctx context.Context, appToken, tableID string, fields []map[string]interface{}) ([]Record, error) {
	records := make([]recordBody, len(fields))
	for i, f := range fields {
		records[i] = recordBody{Fields: f}
	}

	var data struct {
		Records []Record `json:"records"`
	}
	if err := c.call(ctx, "batch_create_records", "Failed to batch create records", http.MethodPost,
		recordsPath(appToken, tableID)+"/batch_create", idempotencyQuery(),
		map[string]interface{}{"records": records}, &data); err != nil {
		return nil, err
	}
	return data.Records, nil
}

func (c *Client) UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]interface{}) (*Record, error) {
	var data struct {
		Record Record `json:"record"`
	}
	if err := c.call(ctx, "update_record", "Failed to update record", http.MethodPut,
		recordsPath(appToken, tableID)+"/"+url.PathEscape(recordID), nil, recordBody{Fields: fields}, &data); err != nil {
		return nil, err
	}
	return &data.Record, nil
}

func (c *Client) DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error {
	return c.call(ctx, "delete_record", "Failed to delete record", http.MethodDelete,
		recordsPath(appToken, tableID)+"/"+url.PathEscape(recordID), nil, nil, nil)
}

func (c *Client) BatchDeleteRecords(ctx context.Context, appToken, tableID string, recordIDs []string) error {
	return c.call(ctx, "batch_delete_records", "Failed to batch delete records", http.MethodPost,
		recordsPath(appToken, tableID)+"/batch_delete", nil,
		map[string]interface{}{"records": recordIDs}, nil)
}

func (c *Client) CreateTable(ctx context.Context, appToken, name string) (*CreatedTable, error) {
	body := map[string]interface{}{
		"table": map[string]string{"name": name},
	}

	var data CreatedTable
	if err := c.call(ctx, "create_table", "Failed to create table", http.MethodPost,
		fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables", url.PathEscape(appToken)), nil, body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) CreateField(ctx context.Context, appToken, tableID string, field TableField) (*CreatedField, error) {
	var data struct {
		Field CreatedField `json:"field"`
	}
	if err := c.call(ctx, "create_field", "Failed to create field", http.MethodPost,
		fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/fields", url.PathEscape(appToken), url.PathEscape(tableID)),
		nil, field, &data); err != nil {
		return nil, err
	}
	return &data.Field, nil
}
