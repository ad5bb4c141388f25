package ats

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lark-ats/internal/common/errors"
	"lark-ats/internal/common/lark"
	"lark-ats/internal/common/lark/larktest"
	"lark-ats/internal/common/logger"
)

// ==========================
// Mock Record API
// ==========================

type MockRecordAPI struct {
	mock.Mock
}

func (m *MockRecordAPI) BaseAppToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *MockRecordAPI) ListRecords(ctx context.Context, appToken, tableID string, req lark.ListRecordsRequest) (*lark.RecordPage, error) {
	args := m.Called(ctx, appToken, tableID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lark.RecordPage), args.Error(1)
}

func (m *MockRecordAPI) GetRecord(ctx context.Context, appToken, tableID, recordID string) (*lark.Record, error) {
	args := m.Called(ctx, appToken, tableID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lark.Record), args.Error(1)
}

func (m *MockRecordAPI) CreateRecord(ctx context.Context, appToken, tableID string, fields map[string]interface{}) (*lark.Record, error) {
	args := m.Called(ctx, appToken, tableID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lark.Record), args.Error(1)
}

func (m *MockRecordAPI) BatchCreateRecords(ctx context.Context, appToken, tableID string, fields []map[string]interface{}) ([]lark.Record, error) {
	args := m.Called(ctx, appToken, tableID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lark.Record), args.Error(1)
}

func (m *MockRecordAPI) UpdateRecord(ctx context.Context, appToken, tableID, recordID string, fields map[string]interface{}) (*lark.Record, error) {
	args := m.Called(ctx, appToken, tableID, recordID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lark.Record), args.Error(1)
}

func (m *MockRecordAPI) DeleteRecord(ctx context.Context, appToken, tableID, recordID string) error {
	args := m.Called(ctx, appToken, tableID, recordID)
	return args.Error(0)
}

func (m *MockRecordAPI) BatchDeleteRecords(ctx context.Context, appToken, tableID string, recordIDs []string) error {
	args := m.Called(ctx, appToken, tableID, recordIDs)
	return args.Error(0)
}

// ==========================
// Test Helpers
// ==========================

const (
	testAppToken = "bascnApp"
	testTableID  = "tblATS"
)

func newMockOperations(t *testing.T) (*Operations, *MockRecordAPI) {
	t.Helper()
	api := new(MockRecordAPI)
	api.On("BaseAppToken").Return(testAppToken, nil)

	ops, err := NewOperations(api, testTableID, logger.NewTestLogger(t))
	require.NoError(t, err)
	return ops, api
}

func newServerOperations(t *testing.T) (*Operations, *larktest.Server) {
	t.Helper()
	srv := larktest.New(t)
	client, err := lark.NewClient(srv.LarkConfig(), lark.WithLogger(logger.NewTestLogger(t)))
	require.NoError(t, err)

	ops, err := NewOperations(client, larktest.TableID, logger.NewTestLogger(t))
	require.NoError(t, err)
	return ops, srv
}

// ==========================
// Construction
// ==========================

func TestNewOperations_MissingConfiguration(t *testing.T) {
	t.Run("missing base app token", func(t *testing.T) {
		api := new(MockRecordAPI)
		api.On("BaseAppToken").Return("", errors.NewConfigMissingError("LARK_BASE_APP_TOKEN"))

		ops, err := NewOperations(api, testTableID, nil)

		require.Error(t, err)
		assert.Nil(t, ops)
		assert.Contains(t, err.Error(), "LARK_BASE_APP_TOKEN must be set in environment variables")
	})

	t.Run("missing table id", func(t *testing.T) {
		api := new(MockRecordAPI)
		api.On("BaseAppToken").Return(testAppToken, nil)

		ops, err := NewOperations(api, "", nil)

		require.Error(t, err)
		assert.Nil(t, ops)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfigMissing))
	})
}

// ==========================
// Record Operations
// ==========================

func TestOperations_List(t *testing.T) {
	tests := []struct {
		name string
		opts *ListOptions
		want lark.ListRecordsRequest
	}{
		{
			name: "defaults",
			opts: nil,
			want: lark.ListRecordsRequest{PageSize: 100},
		},
		{
			name: "explicit options",
			opts: &ListOptions{
				PageSize:  20,
				PageToken: "tok",
				Filter:    `CurrentValue.[担当CA名]="道村"`,
				Sort:      []string{"入社日 DESC", "決定年収 ASC"},
			},
			want: lark.ListRecordsRequest{
				PageSize:  20,
				PageToken: "tok",
				Filter:    `CurrentValue.[担当CA名]="道村"`,
				Sort:      "入社日 DESC,決定年収 ASC",
			},
		},
		{
			name: "zero page size falls back",
			opts: &ListOptions{PageToken: "tok"},
			want: lark.ListRecordsRequest{PageSize: 100, PageToken: "tok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, api := newMockOperations(t)
			page := &lark.RecordPage{HasMore: true, PageToken: "next", Total: 250}
			api.On("ListRecords", mock.Anything, testAppToken, testTableID, tt.want).Return(page, nil)

			result, err := ops.List(context.Background(), tt.opts)

			require.NoError(t, err)
			assert.Same(t, page, result)
			api.AssertExpectations(t)
		})
	}
}

func TestOperations_Get(t *testing.T) {
	ops, api := newMockOperations(t)
	fields := map[string]interface{}{"求職者氏名": "山田太郎"}
	api.On("GetRecord", mock.Anything, testAppToken, testTableID, "rec1").
		Return(&lark.Record{RecordID: "rec1", Fields: fields}, nil)

	got, err := ops.Get(context.Background(), "rec1")

	require.NoError(t, err)
	assert.Equal(t, fields, got)

	_, err = ops.Get(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
	api.AssertNumberOfCalls(t, "GetRecord", 1)
}

func TestOperations_Create(t *testing.T) {
	ops, api := newMockOperations(t)
	expected := map[string]interface{}{"担当CA名": "道村", "決定年収": float64(600)}
	api.On("CreateRecord", mock.Anything, testAppToken, testTableID, expected).
		Return(&lark.Record{RecordID: "rec123"}, nil)

	id, err := ops.Create(context.Background(), ATSRecord{
		CareerAdvisor: String("道村"),
		DecidedSalary: Float64(600),
	})

	require.NoError(t, err)
	assert.Equal(t, "rec123", id)
	api.AssertExpectations(t)
}

func TestOperations_BatchCreate(t *testing.T) {
	t.Run("ids follow input order", func(t *testing.T) {
		ops, api := newMockOperations(t)
		records := []ATSRecord{
			{CandidateName: String("A")},
			{CandidateName: String("B"), JoinDate: Int64(1717200000000)},
			{CandidateName: String("C")},
		}
		expected := []map[string]interface{}{
			{"求職者氏名": "A"},
			{"求職者氏名": "B", "入社日": int64(1717200000000)},
			{"求職者氏名": "C"},
		}
		api.On("BatchCreateRecords", mock.Anything, testAppToken, testTableID, expected).
			Return([]lark.Record{{RecordID: "recA"}, {RecordID: "recB"}, {RecordID: "recC"}}, nil)

		ids, err := ops.BatchCreate(context.Background(), records)

		require.NoError(t, err)
		assert.Equal(t, []string{"recA", "recB", "recC"}, ids)
		api.AssertExpectations(t)
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		ops, api := newMockOperations(t)

		ids, err := ops.BatchCreate(context.Background(), nil)

		require.NoError(t, err)
		assert.NotNil(t, ids)
		assert.Empty(t, ids)
		api.AssertNotCalled(t, "BatchCreateRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		ops, api := newMockOperations(t)
		api.On("BatchCreateRecords", mock.Anything, testAppToken, testTableID, mock.Anything).
			Return([]lark.Record{{RecordID: "recA"}}, nil)

		ids, err := ops.BatchCreate(context.Background(), []ATSRecord{{}, {}})

		require.Error(t, err)
		assert.Nil(t, ids)
		assert.True(t, errors.IsCode(err, errors.ErrCodeResponseInvalid))
	})
}

func TestOperations_UpdateSendsOnlyPresentFields(t *testing.T) {
	ops, api := newMockOperations(t)
	api.On("UpdateRecord", mock.Anything, testAppToken, testTableID, "rec1",
		map[string]interface{}{"選考ステップ": "内定"}).
		Return(&lark.Record{RecordID: "rec1"}, nil)

	err := ops.Update(context.Background(), "rec1", ATSRecord{SelectionStep: String("内定")})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestOperations_Delete(t *testing.T) {
	ops, api := newMockOperations(t)
	api.On("DeleteRecord", mock.Anything, testAppToken, testTableID, "rec1").Return(nil)
	api.On("BatchDeleteRecords", mock.Anything, testAppToken, testTableID, []string{"rec2", "rec3"}).Return(nil)

	require.NoError(t, ops.Delete(context.Background(), "rec1"))
	require.NoError(t, ops.BatchDelete(context.Background(), []string{"rec2", "rec3"}))
	require.NoError(t, ops.BatchDelete(context.Background(), nil))

	err := ops.BatchDelete(context.Background(), []string{"rec4", " "})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	api.AssertExpectations(t)
	api.AssertNumberOfCalls(t, "BatchDeleteRecords", 1)
}

func TestOperations_RemoteErrorsPropagate(t *testing.T) {
	remote := errors.NewRemoteError("Failed to update record", 1254043, "RecordIdNotFound")
	ops, api := newMockOperations(t)
	api.On("UpdateRecord", mock.Anything, testAppToken, testTableID, "recX", mock.Anything).Return(nil, remote)
	api.On("DeleteRecord", mock.Anything, testAppToken, testTableID, "recX").Return(remote)

	err := ops.Update(context.Background(), "recX", ATSRecord{NextAction: String("電話")})
	assert.ErrorIs(t, err, remote)

	err = ops.Delete(context.Background(), "recX")
	assert.ErrorIs(t, err, remote)
}

// ==========================
// Against a fake Lark server
// ==========================

func TestOperations_CreateAgainstServer(t *testing.T) {
	ops, srv := newServerOperations(t)
	srv.Reply(http.MethodPost, larktest.RecordsPath(), larktest.Success(map[string]interface{}{
		"record": map[string]interface{}{
			"record_id": "rec123",
			"fields":    map[string]interface{}{"担当CA名": "道村", "決定年収": 600},
		},
	}))

	id, err := ops.Create(context.Background(), ATSRecord{
		CareerAdvisor: String("道村"),
		DecidedSalary: Float64(600),
	})

	require.NoError(t, err)
	assert.Equal(t, "rec123", id)

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]interface{}{
		"担当CA名": "道村",
		"決定年収":  float64(600),
	}, reqs[0].Body["fields"])
	assert.NotEmpty(t, reqs[0].Query.Get("client_token"))
}

func TestOperations_EveryOperationKeepsRemoteMessage(t *testing.T) {
	ops, srv := newServerOperations(t)
	base := larktest.RecordsPath()
	msg := "TooManyRequest: limit exceeded"
	for _, route := range [][2]string{
		{http.MethodGet, base},
		{http.MethodGet, base + "/rec1"},
		{http.MethodPost, base},
		{http.MethodPost, base + "/batch_create"},
		{http.MethodPut, base + "/rec1"},
		{http.MethodDelete, base + "/rec1"},
		{http.MethodPost, base + "/batch_delete"},
	} {
		srv.Reply(route[0], route[1], larktest.Failure(1254290, msg))
	}

	ctx := context.Background()
	operations := map[string]func() error{
		"list": func() error {
			_, err := ops.List(ctx, nil)
			return err
		},
		"get": func() error {
			_, err := ops.Get(ctx, "rec1")
			return err
		},
		"create": func() error {
			_, err := ops.Create(ctx, ATSRecord{CandidateName: String("A")})
			return err
		},
		"batch create": func() error {
			_, err := ops.BatchCreate(ctx, []ATSRecord{{CandidateName: String("A")}})
			return err
		},
		"update": func() error {
			return ops.Update(ctx, "rec1", ATSRecord{CandidateName: String("A")})
		},
		"delete": func() error {
			return ops.Delete(ctx, "rec1")
		},
		"batch delete": func() error {
			return ops.BatchDelete(ctx, []string{"rec1"})
		},
	}

	for name, op := range operations {
		t.Run(name, func(t *testing.T) {
			err := op()

			require.Error(t, err)
			assert.Contains(t, err.Error(), msg)
			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, msg, stdErr.Details)
			assert.Equal(t, 1254290, stdErr.RemoteCode)
		})
	}
}

func TestOperations_ListAgainstServer(t *testing.T) {
	ops, srv := newServerOperations(t)
	srv.Reply(http.MethodGet, larktest.RecordsPath(), larktest.Success(map[string]interface{}{
		"has_more": false,
		"total":    1,
		"items": []map[string]interface{}{
			{"record_id": "rec1", "fields": map[string]interface{}{"ヨミ": "ネタ"}},
		},
	}))

	page, err := ops.List(context.Background(), &ListOptions{Sort: []string{"入社日 DESC"}})

	require.NoError(t, err)
	assert.False(t, page.HasMore)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "ネタ", page.Items[0].Fields["ヨミ"])

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "100", reqs[0].Query.Get("page_size"))
	assert.Equal(t, "入社日 DESC", reqs[0].Query.Get("sort"))
}
