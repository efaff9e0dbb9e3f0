package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestAdapter_SaveEvent(t *testing.T) {
	eventTime := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	recordTime := eventTime.Add(3 * time.Second)

	tests := []struct {
		name       string
		event      *v1.Event
		refs       storage.VocabRefs
		mockResult func(mock sqlmock.Sqlmock, event *v1.Event)
		assertions func(t *testing.T, event *v1.Event, id int64, err error)
	}{
		{
			name: "object event with side rows",
			event: &v1.Event{
				Type: v1.ObjectEventType,
				Header: v1.Header{
					EventTime:           eventTime,
					RecordTime:          recordTime,
					EventTimeZoneOffset: "+01:00",
					BizStep:             "urn:epcglobal:cbv:bizstep:shipping",
					BizTransactionList: []v1.BizTransaction{
						{Type: "urn:epcglobal:cbv:btt:po", Value: "urn:epc:id:gdti:0614141.00001.1618034"},
					},
					Extensions: []v1.Extension{
						{Namespace: "http://ns.example.com/epcis", Name: "temperature", Value: v1.CoerceExtensionValue("21")},
					},
				},
				Action:  v1.ActionAdd,
				EPCList: []string{"urn:epc:id:sgtin:0614141.107346.2017", "urn:epc:id:sgtin:0614141.107346.2018"},
			},
			refs: storage.VocabRefs{
				BizStep: int64Ptr(3),
				BizTransactions: []storage.BizTransactionRef{
					{TypeID: int64Ptr(4), ValueID: 5},
				},
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				tables := eventTablesByType[v1.ObjectEventType]
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(tables.insertEvent)).
					WithArgs(eventTime, recordTime, "+01:00", int64(3), nil, nil, nil, "ADD").
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
				mock.ExpectExec(regexp.QuoteMeta(tables.insertEPC)).
					WithArgs(int64(42), 0, event.EPCList[0]).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(tables.insertEPC)).
					WithArgs(int64(42), 1, event.EPCList[1]).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(tables.insertBizTrans)).
					WithArgs(int64(42), 0, int64(4), int64(5)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(regexp.QuoteMeta(tables.insertExtension)).
					WithArgs(int64(42), 0, "http://ns.example.com/epcis", "temperature",
						"http://ns.example.com/epcis#temperature", int64(21), nil, nil, nil).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			assertions: func(t *testing.T, event *v1.Event, id int64, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(42), id)
				require.Equal(t, int64(42), event.ID)
			},
		},
		{
			name: "quantity event",
			event: &v1.Event{
				Type:     v1.QuantityEventType,
				Header:   v1.Header{EventTime: eventTime, RecordTime: recordTime},
				EPCClass: "urn:epc:idpat:sgtin:4012345.098765.*",
				Quantity: int64Ptr(200),
			},
			refs: storage.VocabRefs{EPCClass: int64Ptr(8)},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				tables := eventTablesByType[v1.QuantityEventType]
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(tables.insertEvent)).
					WithArgs(eventTime, recordTime, nil, nil, nil, nil, nil, int64(8), int64(200)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectCommit()
			},
			assertions: func(t *testing.T, event *v1.Event, id int64, err error) {
				require.NoError(t, err)
				require.Equal(t, int64(7), id)
			},
		},
		{
			name: "quantity event without interned class fails before tx",
			event: &v1.Event{
				Type:     v1.QuantityEventType,
				Header:   v1.Header{EventTime: eventTime},
				EPCClass: "urn:epc:idpat:sgtin:4012345.098765.*",
				Quantity: int64Ptr(1),
			},
			assertions: func(t *testing.T, event *v1.Event, id int64, err error) {
				require.ErrorContains(t, err, "requires epcClass")
			},
		},
		{
			name: "insert failure rolls back",
			event: &v1.Event{
				Type:   v1.AggregationEventType,
				Header: v1.Header{EventTime: eventTime, RecordTime: recordTime},
				Action: v1.ActionObserve,
			},
			mockResult: func(mock sqlmock.Sqlmock, event *v1.Event) {
				tables := eventTablesByType[v1.AggregationEventType]
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(tables.insertEvent)).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			assertions: func(t *testing.T, event *v1.Event, id int64, err error) {
				require.ErrorContains(t, err, "insert AggregationEvent")
				require.Zero(t, event.ID)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			adapter, mock, db := newMockAdapter(t)
			defer db.Close()

			if tc.mockResult != nil {
				tc.mockResult(mock, tc.event)
			}

			id, err := adapter.SaveEvent(context.Background(), tc.event, tc.refs)
			tc.assertions(t, tc.event, id, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_CloseReturnsDBCloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	dbCloseErr := errors.New("db close failed")

	mock.ExpectPrepare(regexp.QuoteMeta(queryLookupVocabulary)).WillBeClosed()
	stmtLookup, err := db.Prepare(queryLookupVocabulary)
	require.NoError(t, err)

	mock.ExpectPrepare(regexp.QuoteMeta(queryInsertVocabulary)).WillBeClosed()
	stmtInsert, err := db.Prepare(queryInsertVocabulary)
	require.NoError(t, err)

	mock.ExpectClose().WillReturnError(dbCloseErr)

	adapter := &Adapter{
		db:                   db,
		stmtLookupVocabulary: stmtLookup,
		stmtInsertVocabulary: stmtInsert,
	}

	err = adapter.Close()
	require.Error(t, err)
	require.ErrorContains(t, err, "failed to close database")
	require.ErrorIs(t, err, dbCloseErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	adapter := &Adapter{
		db:                   db,
		stmtLookupVocabulary: mustPrepareStmt(t, db, mock, queryLookupVocabulary),
		stmtInsertVocabulary: mustPrepareStmt(t, db, mock, queryInsertVocabulary),
	}

	return adapter, mock, db
}

func mustPrepareStmt(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock, query string) *sql.Stmt {
	t.Helper()

	mock.ExpectPrepare(regexp.QuoteMeta(query))
	stmt, err := db.Prepare(query)
	require.NoError(t, err)

	return stmt
}
