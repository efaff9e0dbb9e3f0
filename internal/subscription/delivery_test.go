package subscription

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/aevon-lab/epcis-repository/internal/api/v1"
	epciserr "github.com/aevon-lab/epcis-repository/internal/core/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHTTPDeliverer_Deliver(t *testing.T) {
	var (
		gotHeader http.Header
		gotBody   []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	executedAt := time.Date(2026, 2, 11, 11, 0, 0, 0, time.UTC)
	report := &Report{
		SubscriptionID: "sub-1",
		QueryName:      v1.SimpleEventQuery,
		ExecutedAt:     executedAt,
		Results: &v1.QueryResults{
			QueryName:      v1.SimpleEventQuery,
			SubscriptionID: "sub-1",
			Events:         []v1.Event{{Type: v1.ObjectEventType, Action: v1.ActionObserve, EPCList: []string{"urn:epc:id:sgtin:0614141.107346.2017"}}},
		},
	}

	d := NewHTTPDeliverer(time.Second, time.Second, "epcis-repository/test")
	require.NoError(t, d.Deliver(context.Background(), srv.URL+"/epcis", report))

	require.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	require.Equal(t, "epcis-repository/test", gotHeader.Get("User-Agent"))
	_, err := uuid.Parse(gotHeader.Get(DeliveryIDHeader))
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	require.Equal(t, "sub-1", decoded.SubscriptionID)
	require.True(t, executedAt.Equal(decoded.ExecutedAt))
	require.Nil(t, decoded.Error)
	require.NotNil(t, decoded.Results)
	require.Len(t, decoded.Results.Events, 1)
	require.Equal(t, []string{"urn:epc:id:sgtin:0614141.107346.2017"}, decoded.Results.Events[0].EPCList)
}

func TestHTTPDeliverer_UniqueDeliveryIDs(t *testing.T) {
	var ids []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.Header.Get(DeliveryIDHeader))
	}))
	defer srv.Close()

	d := NewHTTPDeliverer(time.Second, time.Second, "")
	report := &Report{SubscriptionID: "sub-1", QueryName: v1.SimpleEventQuery}
	require.NoError(t, d.Deliver(context.Background(), srv.URL, report))
	require.NoError(t, d.Deliver(context.Background(), srv.URL, report))

	require.Len(t, ids, 2)
	require.NotEqual(t, ids[0], ids[1])
}

func TestHTTPDeliverer_ErrorReport(t *testing.T) {
	var decoded Report
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decoded))
	}))
	defer srv.Close()

	_, body := epciserr.Response(epciserr.QueryTooLarge("query returned more than %d events", 100))
	d := NewHTTPDeliverer(time.Second, time.Second, "")
	require.NoError(t, d.Deliver(context.Background(), srv.URL, &Report{SubscriptionID: "sub-1", Error: &body}))

	require.Nil(t, decoded.Results)
	require.NotNil(t, decoded.Error)
	require.Equal(t, string(epciserr.KindQueryTooLarge), decoded.Error.ErrorType)
}

func TestHTTPDeliverer_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("try later"))
	}))
	defer srv.Close()

	d := NewHTTPDeliverer(time.Second, time.Second, "")
	err := d.Deliver(context.Background(), srv.URL, &Report{SubscriptionID: "sub-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "503")

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := closed.URL
	closed.Close()
	require.Error(t, d.Deliver(context.Background(), url, &Report{SubscriptionID: "sub-1"}))

	require.Error(t, d.Deliver(context.Background(), "http://bad host/", &Report{}))
}
