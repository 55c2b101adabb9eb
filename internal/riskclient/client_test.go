package riskclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extrisk/extrisk/internal/types"
)

func TestClassifySuccess(t *testing.T) {
	var gotBody wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, classifyPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Extension", r.Header.Get("X-Origin"))
		assert.Equal(t, "key-123", r.Header.Get("X-API-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Some Ext","riskLabel":"High","risk":8.4}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	v := client.Classify(context.Background(), Request{
		ExtensionID: "pub.ext",
		Version:     "1.0.0",
		APIKey:      "key-123",
	})

	require.Equal(t, VerdictOK, v.Kind)
	require.NotNil(t, v.Report)
	assert.Equal(t, "Some Ext", v.Report.DisplayName)
	assert.Equal(t, "High", v.Report.RiskLabel)
	assert.Equal(t, 8.4, v.Report.Risk)

	assert.Equal(t, "pub.ext", gotBody.Q)
	assert.Equal(t, "1.0.0", gotBody.Version)
	assert.Nil(t, gotBody.OrgData)
}

func TestClassifyOrgMode(t *testing.T) {
	var gotBody wireRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"display_name":"Ext","riskLabel":"Low","risk":1.0}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	v := client.Classify(context.Background(), Request{
		ExtensionID: "pub.ext",
		Version:     "1.0.0",
		APIKey:      "org-key",
		Org:         &types.OrgContext{Hostname: "dev-laptop", Username: "sam"},
	})

	require.Equal(t, VerdictOK, v.Kind)
	require.NotNil(t, gotBody.OrgData)
	assert.Equal(t, "dev-laptop", gotBody.OrgData.Hostname)
	assert.Equal(t, "sam", gotBody.OrgData.Username)
}

func TestClassifyNoAPIKeyHeaderWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present, "X-API-Key header should be absent without a credential")
		_, _ = w.Write([]byte(`{"display_name":"Ext","riskLabel":"Low","risk":1.0}`))
	}))
	defer srv.Close()

	v := New(srv.URL).Classify(context.Background(), Request{ExtensionID: "pub.ext"})
	assert.Equal(t, VerdictOK, v.Kind)
}

func TestClassifyRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	v := New(srv.URL).Classify(context.Background(), Request{ExtensionID: "pub.ext"})
	assert.Equal(t, VerdictRateLimited, v.Kind)
	assert.Nil(t, v.Report)
}

func TestClassifyForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	v := New(srv.URL).Classify(context.Background(), Request{ExtensionID: "pub.ext", APIKey: "bad"})
	assert.Equal(t, VerdictUnauthorized, v.Kind)
}

func TestClassifyInvalidKeyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The service signals a rejected key with a 200 and a literal body
		_, _ = w.Write([]byte("Invalid API key"))
	}))
	defer srv.Close()

	v := New(srv.URL).Classify(context.Background(), Request{ExtensionID: "pub.ext", APIKey: "bad"})
	assert.Equal(t, VerdictUnauthorized, v.Kind)
}

func TestClassifyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	v := New(srv.URL).Classify(context.Background(), Request{ExtensionID: "pub.ext"})
	assert.Equal(t, VerdictMalformed, v.Kind)
	assert.Error(t, v.Err)
}

func TestClassifyUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()

	v := New(srv.URL).Classify(context.Background(), Request{ExtensionID: "pub.ext"})
	assert.Equal(t, VerdictMalformed, v.Kind)
	assert.Error(t, v.Err)
}

func TestClassifyTransportError(t *testing.T) {
	// Point at a server that is no longer listening
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	v := New(url).Classify(context.Background(), Request{ExtensionID: "pub.ext"})
	assert.Equal(t, VerdictTransportError, v.Kind)
	assert.Error(t, v.Err)
}

func TestReportTitle(t *testing.T) {
	r := &Report{DisplayName: "Pretty Name", Name: "raw-name"}
	assert.Equal(t, "Pretty Name", r.Title())

	r = &Report{Name: "raw-name"}
	assert.Equal(t, "raw-name", r.Title())
}
