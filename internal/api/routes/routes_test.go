package routes

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medeasy-api-server/internal/auth"
	"medeasy-api-server/internal/service"
	"medeasy-api-server/internal/socket"
	"medeasy-api-server/internal/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	tokens := auth.NewManager("test-secret", time.Hour, bcrypt.MinCost)
	hub := socket.NewHub()
	svc := service.New(service.Deps{
		Stores:    memstore.New().Stores(),
		Tokens:    tokens,
		Publisher: hub,
		Options:   service.DefaultOptions(),
	})
	return SetupRouter(Deps{Services: svc, Tokens: tokens, Hub: hub})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type session struct {
	UserID  string `json:"userId"`
	Role    string `json:"role"`
	PartyID string `json:"partyId"`
	Token   string `json:"token"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func signup(t *testing.T, r *gin.Engine, email, role string) session {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/signup", "", map[string]any{
		"email": email, "password": "pw", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[session](t, w)
}

func createMedicine(t *testing.T, r *gin.Engine, token, name string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/medicines", token, map[string]any{"name": name, "brand": "Square"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[map[string]any](t, w)["id"].(string)
}

func TestSignupAndLogin(t *testing.T) {
	r := setupRouter(t)

	s := signup(t, r, "me@example.com", "")
	assert.Equal(t, "customer", s.Role)
	assert.NotEmpty(t, s.Token)

	w := doJSON(t, r, http.MethodPost, "/api/signup", "", map[string]any{"email": "me@example.com", "password": "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user_exists", decode[errorBody](t, w).Code)

	w = doJSON(t, r, http.MethodPost, "/api/signup", "", map[string]any{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/login", "", map[string]any{"email": "me@example.com", "password": "pw"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, s.UserID, decode[session](t, w).UserID)

	w = doJSON(t, r, http.MethodPost, "/api/login", "", map[string]any{"email": "me@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	shop := signup(t, r, "shop@example.com", "retailer")
	require.NotEmpty(t, shop.PartyID)

	w = doJSON(t, r, http.MethodPost, "/api/partner-login", "", map[string]any{"email": "shop@example.com", "password": "pw", "role": "retailer"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shop.PartyID, decode[session](t, w).PartyID)

	w = doJSON(t, r, http.MethodPost, "/api/partner-login", "", map[string]any{"email": "shop@example.com", "password": "pw", "role": "customer"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/partner-login", "", map[string]any{"email": "shop@example.com", "password": "pw", "role": "wholesaler"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReorderApprovalFlow(t *testing.T) {
	r := setupRouter(t)
	shop := signup(t, r, "shop@example.com", "retailer")
	supplier := signup(t, r, "supplier@example.com", "wholesaler")
	medID := createMedicine(t, r, supplier.Token, "Napa")

	w := doJSON(t, r, http.MethodPost, "/api/inventory/update", shop.Token, map[string]any{
		"medicineId": medID, "partyId": shop.PartyID, "quantity": 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.SetStockResult{Success: true, Quantity: 5, Modified: 1}, decode[service.SetStockResult](t, w))

	w = doJSON(t, r, http.MethodPost, "/api/reorder-requests", "", map[string]any{"medicineId": medID, "quantity": 10})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/reorder-requests", shop.Token, map[string]any{
		"retailerUserId": supplier.UserID, "medicineId": medID, "quantity": 10,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/reorder-requests", shop.Token, map[string]any{"medicineId": medID, "quantity": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](t, w)
	id := created["id"].(string)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, float64(1), created["requestNumber"])

	w = doJSON(t, r, http.MethodGet, "/api/reorder-requests?retailerUserId="+shop.UserID+"&status=pending", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Napa", list[0]["medicine"].(map[string]any)["name"])

	w = doJSON(t, r, http.MethodGet, "/api/reorder-requests?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/reorder-requests/"+id, shop.Token, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, w.Code, "retailers cannot decide")

	w = doJSON(t, r, http.MethodPatch, "/api/reorder-requests/"+id, supplier.Token, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", decode[map[string]any](t, w)["status"])

	w = doJSON(t, r, http.MethodPatch, "/api/reorder-requests/"+id, supplier.Token, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "request_not_pending", decode[errorBody](t, w).Code)

	w = doJSON(t, r, http.MethodPatch, "/api/reorder-requests/missing", supplier.Token, map[string]any{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/customerMedicines", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	roster := decode[[]service.RosterEntry](t, w)
	require.Len(t, roster, 1)
	require.Len(t, roster[0].Medicines, 1)
	assert.Equal(t, int64(15), roster[0].Medicines[0].Quantity)
}

func TestUpdateStockOnlyOwnStore(t *testing.T) {
	r := setupRouter(t)
	shop := signup(t, r, "shop@example.com", "retailer")
	other := signup(t, r, "other@example.com", "retailer")
	supplier := signup(t, r, "supplier@example.com", "wholesaler")
	medID := createMedicine(t, r, supplier.Token, "Napa")

	for _, partyID := range []string{other.PartyID, supplier.PartyID} {
		w := doJSON(t, r, http.MethodPost, "/api/inventory/update", shop.Token, map[string]any{
			"medicineId": medID, "partyId": partyID, "quantity": 999,
		})
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
		assert.Equal(t, "not_store_owner", decode[errorBody](t, w).Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/inventory/update", shop.Token, map[string]any{
		"medicineId": medID, "role": "wholesaler", "quantity": 999,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/wholeSalerMedicines", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	for _, entry := range decode[[]service.RosterEntry](t, w) {
		assert.Empty(t, entry.Medicines)
	}

	w = doJSON(t, r, http.MethodPost, "/api/inventory/update", supplier.Token, map[string]any{
		"medicineId": medID, "partyId": supplier.PartyID, "quantity": 40,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), decode[service.SetStockResult](t, w).Modified)
}

func TestCreateBodiesAreValidated(t *testing.T) {
	r := setupRouter(t)
	shop := signup(t, r, "shop@example.com", "retailer")
	supplier := signup(t, r, "supplier@example.com", "wholesaler")
	medID := createMedicine(t, r, supplier.Token, "Napa")

	tests := []struct {
		name  string
		path  string
		token string
		body  map[string]any
	}{
		{"reorder without quantity", "/api/reorder-requests", shop.Token, map[string]any{"medicineId": medID}},
		{"reorder with zero quantity", "/api/reorder-requests", shop.Token, map[string]any{"medicineId": medID, "quantity": 0}},
		{"reorder without medicine", "/api/reorder-requests", shop.Token, map[string]any{"quantity": 2}},
		{"order without items", "/api/orders", shop.Token, map[string]any{"items": []any{}}},
		{"order with negative line", "/api/orders", shop.Token, map[string]any{
			"items": []map[string]any{{"medicineId": medID, "quantity": -1}},
		}},
		{"order line without medicine", "/api/orders", shop.Token, map[string]any{
			"items": []map[string]any{{"quantity": 1}},
		}},
		{"stock without quantity", "/api/inventory/update", shop.Token, map[string]any{"medicineId": medID, "partyId": shop.PartyID}},
		{"stock with negative quantity", "/api/inventory/update", shop.Token, map[string]any{
			"medicineId": medID, "partyId": shop.PartyID, "quantity": -3,
		}},
		{"medicine without name", "/api/medicines", supplier.Token, map[string]any{"brand": "Square"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "invalid_body", decode[errorBody](t, w).Code)
		})
	}

	w := doJSON(t, r, http.MethodGet, "/api/reorder-requests", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))
	w = doJSON(t, r, http.MethodGet, "/api/orders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))
}

func TestOrderFlow(t *testing.T) {
	r := setupRouter(t)
	shop := signup(t, r, "shop@example.com", "retailer")
	supplier := signup(t, r, "supplier@example.com", "wholesaler")
	napa := createMedicine(t, r, supplier.Token, "Napa")
	seclo := createMedicine(t, r, supplier.Token, "Seclo")

	w := doJSON(t, r, http.MethodPost, "/api/orders", shop.Token, map[string]any{
		"items": []map[string]any{{"medicineId": napa, "quantity": 3}, {"medicineId": seclo, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[map[string]any](t, w)
	id := order["id"].(string)
	assert.Equal(t, float64(500), order["totalAmount"])
	assert.Equal(t, supplier.PartyID, order["wholesalerId"])

	w = doJSON(t, r, http.MethodGet, "/api/orders/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/orders/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/orders/"+id, supplier.Token, map[string]any{"status": "completed"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_transition", decode[errorBody](t, w).Code)

	w = doJSON(t, r, http.MethodPatch, "/api/orders/"+id, supplier.Token, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, r, http.MethodPatch, "/api/orders/"+id, supplier.Token, map[string]any{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "completed", decode[map[string]any](t, w)["status"])

	w = doJSON(t, r, http.MethodGet, "/api/orders?retailerUserId="+shop.UserID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/retailer/"+shop.UserID, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dash := decode[service.RetailerDashboard](t, w)
	assert.Equal(t, 2, dash.TotalItems)
	assert.Equal(t, 2, dash.LowStock)
	require.Len(t, dash.ReorderRequests, 1)

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/wholesaler/"+supplier.UserID, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(500), decode[service.WholesalerDashboard](t, w).MonthlyRevenue)

	w = doJSON(t, r, http.MethodGet, "/api/dashboard/retailer/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchQueryValidation(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/search?lat=abc&lng=90", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/search?lat=23.8", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/search?lat=23.8&lng=90.4&radiusKm=5&q=napa", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestMedicineRoutes(t *testing.T) {
	r := setupRouter(t)
	shop := signup(t, r, "shop@example.com", "retailer")
	supplier := signup(t, r, "supplier@example.com", "wholesaler")

	w := doJSON(t, r, http.MethodPost, "/api/medicines", shop.Token, map[string]any{"name": "Napa"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	id := createMedicine(t, r, supplier.Token, "Napa")
	w = doJSON(t, r, http.MethodPost, "/api/medicines", supplier.Token, map[string]any{"name": "NAPA"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/medicines/"+id, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/medicines?q=nap", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "napa.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/medicines/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+supplier.Token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "uploads_disabled", decode[errorBody](t, rec).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "medeasy_http_request_duration_seconds")
}
