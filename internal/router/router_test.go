package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"weddingplan/internal/domain"
	"weddingplan/internal/handler"
	"weddingplan/internal/router"
	"weddingplan/internal/service"
	"weddingplan/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter() (*gin.Engine, *mocks.MockAuthService, *mocks.MockVendorService, *mocks.MockImportService) {
	auth := new(mocks.MockAuthService)
	vendors := new(mocks.MockVendorService)
	imports := new(mocks.MockImportService)
	repo := new(mocks.MockVendorRepository)
	repo.On("Ping", mock.Anything).Return(nil)

	r := router.Setup(auth, router.Handlers{
		Vendor: handler.NewVendorHandler(vendors, nil),
		Import: handler.NewImportHandler(imports, 1024, nil),
		Health: handler.NewHealthHandler(repo),
	}, nil, nil)
	return r, auth, vendors, imports
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r, _, _, _ := setupRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, http.NoBody)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_VendorsRequireToken(t *testing.T) {
	r, _, vendors, _ := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/vendors", http.NoBody)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	vendors.AssertNotCalled(t, "ListVendors", mock.Anything, mock.Anything)
}

func TestRouter_TokenScopesRequestsToWedding(t *testing.T) {
	r, auth, vendors, imports := setupRouter()
	weddingID := uuid.New()

	auth.On("ValidateToken", "tok").Return(&service.Claims{
		WeddingID: weddingID,
		UserID:    uuid.New(),
		Role:      domain.RolePlanner,
	}, nil)
	vendors.On("ListVendors", mock.Anything, weddingID).Return([]domain.VendorRecord{}, nil)
	imports.On("Get", mock.Anything, weddingID, mock.Anything).Return(nil, domain.ErrSessionNotFound)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/vendors", http.NoBody)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/imports/"+uuid.NewString(), http.NoBody)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	vendors.AssertExpectations(t)
	imports.AssertExpectations(t)
}

func TestRouter_UnknownRoleForbidden(t *testing.T) {
	r, auth, _, _ := setupRouter()

	auth.On("ValidateToken", "tok").Return(&service.Claims{
		WeddingID: uuid.New(),
		UserID:    uuid.New(),
		Role:      domain.UserRole("vendor"),
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/payments/upcoming", http.NoBody)
	req.Header.Set("Authorization", "Bearer tok")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
