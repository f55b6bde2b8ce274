package jwtmiddleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/security"
	"github.com/linemk/tkani-shop/internal/security/jwtmiddleware"
	"github.com/stretchr/testify/assert"
)

func TestJWTMiddleware_ValidToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	token, err := security.NewToken(context.Background(), &models.User{
		ID: 7, Email: "anna@example.com", Role: models.RoleAdmin,
	}, time.Hour)
	assert.NoError(t, err)

	mw := jwtmiddleware.NewJWTMiddleware()

	var gotUserID int64
	var gotAdmin bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = jwtmiddleware.FromContext(r.Context())
		gotAdmin = jwtmiddleware.IsAdmin(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/orders/my", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(7), gotUserID)
	assert.True(t, gotAdmin)
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	mw := jwtmiddleware.NewJWTMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/orders/my", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_BadTokenFormat(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	mw := jwtmiddleware.NewJWTMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/orders/my", nil)
	req.Header.Set("Authorization", "Token abc.def.ghi")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "secret-one")
	token, err := security.NewToken(context.Background(), &models.User{ID: 1}, time.Hour)
	assert.NoError(t, err)

	// Middleware создается уже с другим секретом
	os.Setenv("JWT_SECRET", "secret-two")
	defer os.Unsetenv("JWT_SECRET")

	mw := jwtmiddleware.NewJWTMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/api/orders/my", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestIsAdmin_DefaultRole(t *testing.T) {
	// Контекст без роли — не администратор
	assert.False(t, jwtmiddleware.IsAdmin(context.Background()))

	ctx := context.WithValue(context.Background(), jwtmiddleware.RoleKey, models.RoleUser)
	assert.False(t, jwtmiddleware.IsAdmin(ctx))

	ctx = context.WithValue(context.Background(), jwtmiddleware.RoleKey, models.RoleAdmin)
	assert.True(t, jwtmiddleware.IsAdmin(ctx))
}
