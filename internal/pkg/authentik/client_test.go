package authentik

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvitation(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, InvitationsPath, r.URL.Path)
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"pk":"T1","name":"bob","flow_obj":{"slug":"S1"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "admin-token")
	inv, err := c.CreateInvitation(context.Background(), NewCreateRequest("bob", "@admin:x", "2025-03-17T09:26", "flow-id"))
	require.NoError(t, err)

	assert.Equal(t, "T1", inv.Pk)
	require.NotNil(t, inv.FlowObj)
	assert.Equal(t, "S1", inv.FlowObj.Slug)
	assert.JSONEq(t, `{"pk":"T1","name":"bob","flow_obj":{"slug":"S1"}}`, inv.Raw)

	assert.Equal(t, "bob", got["name"])
	assert.Equal(t, "2025-03-17T09:26", got["expires"])
	assert.Equal(t, true, got["single_use"])
	assert.Equal(t, "flow-id", got["flow"])
	assert.Equal(t, map[string]any{"attributes.notes": "invited by @admin:x"}, got["fixed_data"])
}

func TestCreateInvitation_NonSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail":"Token invalid/expired"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad")
	_, err := c.CreateInvitation(context.Background(), NewCreateRequest("bob", "@a:x", "2025-03-17T09:26", "f"))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Status)
	assert.Equal(t, `{"detail":"Token invalid/expired"}`, se.Body)
	assert.Equal(t, 1, calls)
}

func TestCreateInvitation_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, "t").CreateInvitation(context.Background(), CreateRequest{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Zero(t, se.Status)
	assert.Error(t, se.Err)
}

func TestCreateInvitation_Undecodable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "t").CreateInvitation(context.Background(), CreateRequest{})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "<html>oops</html>", de.Body)
}

func TestListInvitations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"pagination":{"count":2},"results":[{"name":"a"},{"name":"b"}]}`))
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL, "t").ListInvitations(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page.Results)
	require.Len(t, *page.Results, 2)
	assert.Equal(t, "a", (*page.Results)[0].Name)
	assert.Equal(t, "b", (*page.Results)[1].Name)
}

func TestGetAndDeleteInvitation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, InvitationsPath+"T1/", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"pk":"T1","name":"bob","single_use":true}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	inv, err := c.GetInvitation(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "bob", inv.Name)
	assert.True(t, inv.SingleUse)

	assert.NoError(t, c.DeleteInvitation(context.Background(), "T1"))
}

func TestClient_Validate(t *testing.T) {
	assert.NoError(t, NewClient("https://sso.example.org", "t").Validate())
	assert.Error(t, NewClient("", "t").Validate())
	assert.Error(t, NewClient("https://sso.example.org", "").Validate())
	assert.Equal(t, "https://sso.example.org"+InvitationsPath, NewClient("https://sso.example.org/", "t").Endpoint())
}
