package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	httperr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	storagemocks "github.com/aevon-lab/epcis-repository/internal/mocks/storage"
	"github.com/aevon-lab/epcis-repository/internal/vocabulary"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	shipping  = "urn:epcglobal:cbv:bizstep:shipping"
	readPoint = "urn:epc:id:sgln:0614141.07346.1234"
	poType    = "urn:epcglobal:cbv:btt:po"
	poValue   = "http://transaction.acme.com/po/12345678"
)

var captureTime = time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	events *storagemocks.EventStore
	vocab  *storagemocks.VocabularyStore
	router *gin.Engine
}

func newTestEnv(t *testing.T, maxBodySizeMB int) *testEnv {
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		events: storagemocks.NewEventStore(t),
		vocab:  storagemocks.NewVocabularyStore(t),
	}
	svc := NewService(vocabulary.NewInterner(env.vocab, 100), env.events, env.vocab, maxBodySizeMB)
	svc.now = func() time.Time { return captureTime }

	env.router = gin.New()
	svc.RegisterRoutes(env.router)
	return env
}

func (env *testEnv) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func int64Ptr(v int64) *int64 { return &v }

func TestCaptureHandler_Success(t *testing.T) {
	env := newTestEnv(t, 1)

	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocBusinessStep, shipping).Return(int64(10), nil).Once()
	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocReadPoint, readPoint).Return(int64(11), nil).Once()
	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocBusinessTransactionType, poType).Return(int64(12), nil).Once()
	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocBusinessTransaction, poValue).Return(int64(13), nil).Once()

	wantRefs := storage.VocabRefs{
		BizStep:         int64Ptr(10),
		ReadPoint:       int64Ptr(11),
		BizTransactions: []storage.BizTransactionRef{{TypeID: int64Ptr(12), ValueID: 13}},
	}
	var saved []*v1.Event
	env.events.EXPECT().
		SaveEvent(mock.Anything, mock.Anything, wantRefs).
		Run(func(_ context.Context, evt *v1.Event, _ storage.VocabRefs) {
			saved = append(saved, evt)
		}).
		Return(int64(1), nil).
		Twice()

	body := `{"events":[
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:00:00Z","recordTime":"2020-01-01T00:00:00Z",
		 "action":"OBSERVE","epcList":["urn:epc:id:sgtin:0614141.107346.2017"],
		 "bizStep":"` + shipping + `","readPoint":"` + readPoint + `",
		 "bizTransactionList":[{"type":"` + poType + `","value":"` + poValue + `"}]},
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:05:00Z",
		 "action":"ADD","epcList":["urn:epc:id:sgtin:0614141.107346.2018"],
		 "bizStep":"` + shipping + `","readPoint":"` + readPoint + `",
		 "bizTransactionList":[{"type":"` + poType + `","value":"` + poValue + `"}]}
	]}`
	resp := env.post("/v1/capture", body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, "accepted", result["status"])
	require.Equal(t, float64(2), result["count"])

	require.Len(t, saved, 2)
	for _, evt := range saved {
		require.Equal(t, captureTime, evt.RecordTime)
	}
	require.Equal(t, v1.ActionAdd, saved[1].Action)
}

func TestCaptureHandler_QuantityEventInternsEPCClass(t *testing.T) {
	env := newTestEnv(t, 1)

	class := "urn:epc:idpat:sgtin:4012345.098765.*"
	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocEPCClass, class).Return(int64(7), nil).Once()
	env.events.EXPECT().
		SaveEvent(mock.Anything, mock.MatchedBy(func(evt *v1.Event) bool {
			return evt.Type == v1.QuantityEventType && *evt.Quantity == 200
		}), storage.VocabRefs{EPCClass: int64Ptr(7)}).
		Return(int64(1), nil).
		Once()

	body := `{"events":[{"type":"QuantityEvent","eventTime":"2026-02-11T09:00:00Z","epcClass":"` + class + `","quantity":200}]}`
	resp := env.post("/v1/capture", body)
	require.Equal(t, http.StatusAccepted, resp.Code)
}

func TestCaptureHandler_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		maxMB      int
		wantStatus int
		wantType   string
	}{
		{
			name:       "malformed json",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidJsonError,
		},
		{
			name:       "no events",
			body:       `{"events":[]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidEventError,
		},
		{
			name:       "missing event time",
			body:       `{"events":[{"type":"ObjectEvent","action":"ADD"}]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidEventError,
		},
		{
			name:       "field not legal for type",
			body:       `{"events":[{"type":"ObjectEvent","eventTime":"2026-02-11T09:00:00Z","action":"ADD","parentID":"urn:epc:id:sscc:0614141.1234567890"}]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidEventError,
		},
		{
			name:       "transaction without parent",
			body:       `{"events":[{"type":"TransactionEvent","eventTime":"2026-02-11T09:00:00Z","action":"ADD"}]}`,
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidEventError,
		},
		{
			name:       "oversized body",
			body:       `{"events":[],"padding":"` + strings.Repeat("x", 1024*1024) + `"}`,
			maxMB:      1,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   httperr.HttpInvalidJsonError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, tc.maxMB)

			resp := env.post("/v1/capture", tc.body)
			require.Equal(t, tc.wantStatus, resp.Code)

			var errResp httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
			require.Equal(t, tc.wantType, errResp.ErrorType)
		})
	}
}

func TestCaptureHandler_ValidatesWholeDocumentFirst(t *testing.T) {
	env := newTestEnv(t, 1)

	body := `{"events":[
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:00:00Z","action":"ADD"},
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:00:00Z","action":"MOVE"}
	]}`
	resp := env.post("/v1/capture", body)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, map[string]interface{}{"index": float64(1)}, errResp.Details)
}

func TestCaptureHandler_PersistFailure(t *testing.T) {
	env := newTestEnv(t, 1)

	env.events.EXPECT().SaveEvent(mock.Anything, mock.Anything, storage.VocabRefs{}).Return(int64(1), nil).Once()
	env.events.EXPECT().SaveEvent(mock.Anything, mock.Anything, storage.VocabRefs{}).Return(int64(0), errors.New("connection reset")).Once()

	body := `{"events":[
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:00:00Z","action":"ADD"},
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:01:00Z","action":"ADD"},
		{"type":"ObjectEvent","eventTime":"2026-02-11T09:02:00Z","action":"ADD"}
	]}`
	resp := env.post("/v1/capture", body)
	require.Equal(t, http.StatusInternalServerError, resp.Code)

	var errResp httperr.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &errResp))
	require.Equal(t, httperr.HttpInternalError, errResp.ErrorType)
	require.Equal(t, map[string]interface{}{"index": float64(1), "stored": float64(1)}, errResp.Details)
}

func TestCaptureHandler_InternFailure(t *testing.T) {
	env := newTestEnv(t, 1)

	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocBusinessStep, shipping).Return(int64(0), errors.New("deadlock detected")).Once()

	body := `{"events":[{"type":"ObjectEvent","eventTime":"2026-02-11T09:00:00Z","action":"ADD","bizStep":"` + shipping + `"}]}`
	resp := env.post("/v1/capture", body)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestMasterDataHandler(t *testing.T) {
	env := newTestEnv(t, 1)

	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocReadPoint, readPoint).Return(int64(11), nil).Once()
	env.vocab.EXPECT().UpsertVocabularyAttributes(mock.Anything, int64(11), map[string]string{
		"urn:epcglobal:cbv:mda#name": "Dock 4",
	}).Return(nil).Once()
	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocBusinessStep, shipping).Return(int64(10), nil).Once()
	env.vocab.EXPECT().UpsertVocabularyAttributes(mock.Anything, int64(10), map[string]string(nil)).Return(nil).Once()

	body := `{"vocabularyElements":[
		{"type":"` + storage.VocReadPoint + `","id":"` + readPoint + `","attributes":{"urn:epcglobal:cbv:mda#name":"Dock 4"}},
		{"type":"` + storage.VocBusinessStep + `","id":"` + shipping + `"}
	]}`
	resp := env.post("/v1/capture/masterdata", body)

	require.Equal(t, http.StatusAccepted, resp.Code)
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Equal(t, float64(2), result["count"])
}

func TestMasterDataHandler_Rejections(t *testing.T) {
	env := newTestEnv(t, 1)

	resp := env.post("/v1/capture/masterdata", `{"vocabularyElements":[]}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.post("/v1/capture/masterdata", `{"vocabularyElements":[{"type":"`+storage.VocReadPoint+`"}]}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)

	env.vocab.EXPECT().InternVocabulary(mock.Anything, storage.VocReadPoint, readPoint).Return(int64(11), nil).Once()
	env.vocab.EXPECT().UpsertVocabularyAttributes(mock.Anything, int64(11), mock.Anything).Return(errors.New("disk full")).Once()
	resp = env.post("/v1/capture/masterdata", `{"vocabularyElements":[{"type":"`+storage.VocReadPoint+`","id":"`+readPoint+`","attributes":{"a":"b"}}]}`)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestNewService_PanicsOnNilDependencies(t *testing.T) {
	vocab := storagemocks.NewVocabularyStore(t)
	events := storagemocks.NewEventStore(t)
	interner := vocabulary.NewInterner(vocab, 10)

	require.Panics(t, func() { NewService(nil, events, vocab, 1) })
	require.Panics(t, func() { NewService(interner, nil, vocab, 1) })
	require.Panics(t, func() { NewService(interner, events, nil, 1) })
}
