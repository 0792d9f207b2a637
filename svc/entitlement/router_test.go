package entitlement_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/resumekit/pkg/billing"
	"github.com/dmitrymomot/resumekit/pkg/plans"
	"github.com/dmitrymomot/resumekit/svc/entitlement"
)

func newTestServer(t *testing.T, seatCapacity int64) (*httptest.Server, *mockProvider, entitlement.Store) {
	t.Helper()

	catalog, err := plans.NewCatalog(context.Background(), plans.NewInMemSource(plans.Default()...))
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := entitlement.NewMemoryStore(seatCapacity)
	provider := &mockProvider{}
	svc := entitlement.NewService(entitlement.Config{
		SeatCapacity:          seatCapacity,
		FallbackLifetimePrice: 19900,
		Currency:              "USD",
		AdminCredentialHash:   string(hash),
		ProviderTimeout:       time.Second,
	}, store, provider, catalog)

	srv := httptest.NewServer(entitlement.Router(svc))
	t.Cleanup(srv.Close)
	return srv, provider, store
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRouter_UpgradeFlow(t *testing.T) {
	t.Parallel()

	srv, provider, _ := newTestServer(t, 1000)
	userID := uuid.New()

	provider.On("CreateOrder", mock.Anything, mock.Anything).Return("txn_http_1", nil).Once()
	provider.On("TransactionStatus", mock.Anything, "txn_http_1", billing.KindOrder).
		Return(billing.StatusCaptured, nil).Once()

	resp := postJSON(t, srv.URL+"/upgrade/initiate", map[string]any{
		"user_id": userID.String(),
		"plan":    "lifetime",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "txn_http_1", body["transaction_id"])

	resp = postJSON(t, srv.URL+"/upgrade/confirm", map[string]any{
		"user_id":        userID.String(),
		"transaction_id": "txn_http_1",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "applied", decodeBody(t, resp)["outcome"])

	resp, err := http.Get(fmt.Sprintf("%s/users/%s/entitlement", srv.URL, userID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ent := decodeBody(t, resp)
	assert.Equal(t, "lifetime", ent["plan"])
}

func TestRouter_ConfirmOutcomes(t *testing.T) {
	t.Parallel()

	t.Run("seat exhausted", func(t *testing.T) {
		t.Parallel()
		srv, provider, _ := newTestServer(t, 0)
		userID := uuid.New()

		provider.On("CreateOrder", mock.Anything, mock.Anything).Return("txn_http_2", nil).Once()
		provider.On("TransactionStatus", mock.Anything, "txn_http_2", billing.KindOrder).
			Return(billing.StatusCaptured, nil).Once()

		resp := postJSON(t, srv.URL+"/upgrade/initiate", map[string]any{
			"user_id": userID.String(), "plan": "lifetime",
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = postJSON(t, srv.URL+"/upgrade/confirm", map[string]any{
			"user_id": userID.String(), "transaction_id": "txn_http_2",
		}, nil)
		require.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "seat_exhausted", decodeBody(t, resp)["outcome"])
	})

	t.Run("verification failed", func(t *testing.T) {
		t.Parallel()
		srv, provider, _ := newTestServer(t, 10)
		userID := uuid.New()

		provider.On("CreateOrder", mock.Anything, mock.Anything).Return("txn_http_3", nil).Once()
		provider.On("TransactionStatus", mock.Anything, "txn_http_3", billing.KindOrder).
			Return(billing.StatusFailed, nil).Once()

		resp := postJSON(t, srv.URL+"/upgrade/initiate", map[string]any{
			"user_id": userID.String(), "plan": "lifetime",
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()

		resp = postJSON(t, srv.URL+"/upgrade/confirm", map[string]any{
			"user_id": userID.String(), "transaction_id": "txn_http_3",
		}, nil)
		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Equal(t, "verification_failed", decodeBody(t, resp)["outcome"])
	})

	t.Run("unknown transaction", func(t *testing.T) {
		t.Parallel()
		srv, _, _ := newTestServer(t, 10)

		resp := postJSON(t, srv.URL+"/upgrade/confirm", map[string]any{
			"user_id": uuid.NewString(), "transaction_id": "txn_nope",
		}, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestRouter_LifetimeOfferAndAdmin(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, 42)

	resp, err := http.Get(srv.URL + "/lifetime-offer")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	offer := decodeBody(t, resp)
	assert.EqualValues(t, 42, offer["remaining_seats"])

	// Price write requires the admin credential.
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/admin/lifetime-price",
		bytes.NewReader([]byte(`{"price": 24900}`)))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodPut, srv.URL+"/admin/lifetime-price",
		bytes.NewReader([]byte(`{"price": 24900}`)))
	require.NoError(t, err)
	req.Header.Set("X-Admin-Credential", "admin-secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/lifetime-offer")
	require.NoError(t, err)
	price := decodeBody(t, resp)["price"].(map[string]any)
	assert.EqualValues(t, 24900, price["amount"])
}
