package ats

import (
	"context"
	"fmt"
	"strings"

	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/lark"
	"lark-ats/internal/common/logger"
)

const DefaultPageSize = 100

// RecordAPI is the part of the Lark client the record operations use.
type RecordAPI interface {
	BaseAppToken() (string, error)
	ListRecords(ctx context.Context, appToken, tableID string, req lark.ListRecordsRequest) (*lark.RecordPage, error)
	GetRecord(ctx context.Context, appToken, tableID, recordID string) (*lark.Record, error)
	CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]interface{}) (*lark.Record, error)
	BatchCreateRecords(ctx context.Context, appToken, tableID string, fields []map[string]interface{}) ([]lark.Record, error)
	UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]interface{}) (*lark.Record, error)
	DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error
	BatchDeleteRecords(ctx context.Context, appToken, tableID string, recordIDs []string) error
}

type ListOptions struct {
	PageSize  int
	PageToken string
	Filter    string
	Sort      []string
}

// ListResult is the remote page, unchanged.
type ListResult = lark.RecordPage

// Operations manages records of one ATS table. Every method is a single
// remote call; a non-zero status from Lark is returned as an error that
// keeps the remote message.
type Operations struct {
	api      RecordAPI
	appToken string
	tableID  string
	logger   logger.Logger
}

// NewOperations binds the operations to tableID inside the client's Base.
func NewOperations(api RecordAPI, tableID string, log logger.Logger) (*Operations, error) {
	appToken, err := api.BaseAppToken()
	if err != nil {
		return nil, err
	}
	if tableID == "" {
		return nil, errors.NewConfigMissingError("LARK_TABLE_ID")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Operations{
		api:      api,
		appToken: appToken,
		tableID:  tableID,
		logger:   log.With(map[string]interface{}{"tableId": tableID}),
	}, nil
}

func (o *Operations) TableID() string {
	return o.tableID
}

func (o *Operations) List(ctx context.Context, opts *ListOptions) (*ListResult, error) {
	req := lark.ListRecordsRequest{PageSize: DefaultPageSize}
	if opts != nil {
		if opts.PageSize > 0 {
			req.PageSize = opts.PageSize
		}
		req.PageToken = opts.PageToken
		req.Filter = opts.Filter
		req.Sort = strings.Join(opts.Sort, ",")
	}

	return o.api.ListRecords(ctx, o.appToken, o.tableID, req)
}

// Get returns the raw fields of one record.
func (o *Operations) Get(ctx context.Context, recordID string) (map[string]interface{}, error) {
	if err := requireID(recordID); err != nil {
		return nil, err
	}

	record, err := o.api.GetRecord(ctx, o.appToken, o.tableID, recordID)
	if err != nil {
		return nil, err
	}
	return record.Fields, nil
}

func (o *Operations) Create(ctx context.Context, record ATSRecord) (string, error) {
	created, err := o.api.CreateRecord(ctx, o.appToken, o.tableID, record.ToLarkFields())
	if err != nil {
		return "", err
	}

	o.logger.Info("Created ATS record", map[string]interface{}{
		"recordId": created.RecordID,
	})
	return created.RecordID, nil
}

// BatchCreate creates records in one remote call and returns their ids in
// input order. The batch either succeeds as a whole or returns an error.
func (o *Operations) BatchCreate(ctx context.Context, records []ATSRecord) ([]string, error) {
	if len(records) == 0 {
		return []string{}, nil
	}

	fields := make([]map[string]interface{}, len(records))
	for i, r := range records {
		fields[i] = r.ToLarkFields()
	}

	created, err := o.api.BatchCreateRecords(ctx, o.appToken, o.tableID, fields)
	if err != nil {
		return nil, err
	}

	if len(created) != len(records) {
		return nil, errors.NewInvalidResponseError("batch_create_records",
			fmt.Sprintf("sent %d records, received %d ids", len(records), len(created)))
	}

	ids := make([]string, len(created))
	for i, r := range created {
		ids[i] = r.RecordID
	}

	o.logger.Info("Batch created ATS records", map[string]interface{}{
		"count": len(ids),
	})
	return ids, nil
}

// Update sends only the fields present in record; the rest stay untouched.
func (o *Operations) Update(ctx context.Context, recordID string, record ATSRecord) error {
	if err := requireID(recordID); err != nil {
		return err
	}

	fields := record.ToLarkFields()
	if _, err := o.api.UpdateRecord(ctx, o.appToken, o.tableID, recordID, fields); err != nil {
		return err
	}

	o.logger.Info("Updated ATS record", map[string]interface{}{
		"recordId": recordID,
		"fields":   len(fields),
	})
	return nil
}

func (o *Operations) Delete(ctx context.Context, recordID string) error {
	if err := requireID(recordID); err != nil {
		return err
	}

	if err := o.api.DeleteRecord(ctx, o.appToken, o.tableID, recordID); err != nil {
		return err
	}

	o.logger.Info("Deleted ATS record", map[string]interface{}{
		"recordId": recordID,
	})
	return nil
}

func (o *Operations) BatchDelete(ctx context.Context, recordIDs []string) error {
	if len(recordIDs) == 0 {
		return nil
	}
	for _, id := range recordIDs {
		if err := requireID(id); err != nil {
			return err
		}
	}

	if err := o.api.BatchDeleteRecords(ctx, o.appToken, o.tableID, recordIDs); err != nil {
		return err
	}

	o.logger.Info("Batch deleted ATS records", map[string]interface{}{
		"count": len(recordIDs),
	})
	return nil
}

func requireID(recordID string) error {
	if strings.TrimSpace(recordID) == "" {
		return errors.NewInvalidInputError("Record id is required", "")
	}
	return nil
}
