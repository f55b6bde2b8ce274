package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/tkani-shop/internal/app/handlers"
	"github.com/linemk/tkani-shop/internal/domain/models"
	"github.com/linemk/tkani-shop/internal/lib/apperr"
	"github.com/linemk/tkani-shop/internal/security/jwtmiddleware"
	"github.com/linemk/tkani-shop/internal/service"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// fakeCartService — фиктивная реализация для тестирования обработчиков
type fakeCartService struct {
	cart models.Cart
	view *service.CartView
	err  error
}

func (f *fakeCartService) Render(ctx context.Context, cart models.Cart) (*service.CartView, error) {
	return f.view, f.err
}

func (f *fakeCartService) AddItem(ctx context.Context, cart models.Cart, productID int64, quantity int) (models.Cart, *service.CartView, error) {
	return f.cart, f.view, f.err
}

func (f *fakeCartService) UpdateItem(ctx context.Context, cart models.Cart, productID int64, quantity int) (models.Cart, *service.CartView, error) {
	return f.cart, f.view, f.err
}

func (f *fakeCartService) RemoveItem(ctx context.Context, cart models.Cart, productID int64) (models.Cart, *service.CartView, error) {
	return f.cart, f.view, f.err
}

type fakeOrderService struct {
	detail *service.OrderDetail
	list   *service.OrderList
	err    error
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, userID int64, cart models.Cart, delivery service.DeliveryInfo) (*service.OrderDetail, error) {
	return f.detail, f.err
}

func (f *fakeOrderService) GetOrder(ctx context.Context, userID, orderID int64) (*service.OrderDetail, error) {
	return f.detail, f.err
}

func (f *fakeOrderService) ListOrders(ctx context.Context, userID int64, status string, page, limit int) (*service.OrderList, error) {
	return f.list, f.err
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, actorID int64, actorRole string, orderID int64, newStatus, comment string) error {
	return f.err
}

type fakeAdminService struct {
	product *models.Product
	err     error
}

func (f *fakeAdminService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return []*models.Product{f.product}, f.err
}

func (f *fakeAdminService) CreateProduct(ctx context.Context, input service.CreateProductInput) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeAdminService) UpdateProduct(ctx context.Context, productID int64, input service.UpdateProductInput) (*models.Product, error) {
	return f.product, f.err
}

func (f *fakeAdminService) DeleteProduct(ctx context.Context, productID int64) error {
	return f.err
}

type fakeAuthService struct {
	token string
	user  *models.User
	err   error
}

func (f *fakeAuthService) Register(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	return f.token, f.user, f.err
}

func (f *fakeAuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return f.user, f.err
}

// withUser кладет идентификатор и роль в контекст запроса, как это делает JWT-middleware
func withUser(r *http.Request, userID int64, role string) *http.Request {
	ctx := context.WithValue(r.Context(), jwtmiddleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, role)
	return r.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) (bool, string) {
	t.Helper()
	var resp struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
	}
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	return resp.Error, resp.Message
}

func TestAddToCartHandler_Success(t *testing.T) {
	fakeSvc := &fakeCartService{
		cart: models.Cart{1: 2},
		view: &service.CartView{Success: true, Items: []*service.CartLineView{}, Total: 200, TotalItems: 1},
	}
	handler := handlers.AddToCartHandler(testLogger(), fakeSvc, 720*time.Hour)

	reqBody := `{"product_id": 1, "quantity": 2}`
	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	// Ответ сопровождается обновленной cookie корзины (URL-кодированный JSON)
	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Equal(t, handlers.CartCookieName, cookies[0].Name)
	decoded, err := url.QueryUnescape(cookies[0].Value)
	assert.NoError(t, err)
	assert.Equal(t, `{"1":2}`, decoded)
	assert.Equal(t, "/", cookies[0].Path)
	assert.False(t, cookies[0].HttpOnly)
}

func TestAddToCartHandler_InvalidBody(t *testing.T) {
	handler := handlers.AddToCartHandler(testLogger(), &fakeCartService{}, time.Hour)

	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(`{"product_id":`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	isErr, _ := decodeError(t, rr)
	assert.True(t, isErr)
	// Cookie при ошибке не трогается
	assert.Empty(t, rr.Result().Cookies())
}

func TestAddToCartHandler_InsufficientStock(t *testing.T) {
	fakeSvc := &fakeCartService{err: apperr.Validation("insufficient stock, available: 5")}
	handler := handlers.AddToCartHandler(testLogger(), fakeSvc, time.Hour)

	req := httptest.NewRequest("POST", "/api/cart/add", bytes.NewBufferString(`{"product_id": 1, "quantity": 10}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	isErr, msg := decodeError(t, rr)
	assert.True(t, isErr)
	assert.Equal(t, "insufficient stock, available: 5", msg)
}

func TestClearCartHandler(t *testing.T) {
	handler := handlers.ClearCartHandler(testLogger())

	req := httptest.NewRequest("POST", "/api/cart/clear", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	// Cookie корзины немедленно истекает
	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0 || !cookies[0].Expires.After(time.Unix(1, 0)))
}

func TestCreateOrderHandler_Unauthorized(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	req := httptest.NewRequest("POST", "/api/orders/create", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{detail: &service.OrderDetail{
		Order: &models.Order{ID: 42, UserID: 1, Total: 350.20, Status: models.OrderStatusPending},
	}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	// Тело запроса опционально
	req := httptest.NewRequest("POST", "/api/orders/create", nil)
	req.AddCookie(&http.Cookie{Name: handlers.CartCookieName, Value: url.QueryEscape(`{"1":2}`)})
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 1, models.RoleUser))

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Success bool          `json:"success"`
		Order   *models.Order `json:"order"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), resp.Order.ID)

	// После успешного заказа корзина очищается
	cookies := rr.Result().Cookies()
	assert.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestCreateOrderHandler_EmptyCart(t *testing.T) {
	fakeSvc := &fakeOrderService{err: apperr.Validation("cart is empty")}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("POST", "/api/orders/create", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 1, models.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	// Cookie при ошибке не очищается
	assert.Empty(t, rr.Result().Cookies())
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: apperr.NotFound("order not found")}
	handler := handlers.GetOrderHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/orders/7", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 1, models.RoleUser))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	isErr, msg := decodeError(t, rr)
	assert.True(t, isErr)
	assert.Equal(t, "order not found", msg)
}

func TestUpdateOrderStatusHandler_Forbidden(t *testing.T) {
	fakeSvc := &fakeOrderService{err: apperr.Forbidden("you are not allowed to modify this order")}
	handler := handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("PUT", "/api/orders/7/status", bytes.NewBufferString(`{"status": "paid"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 99, models.RoleUser))

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdateOrderStatusHandler_Success(t *testing.T) {
	handler := handlers.UpdateOrderStatusHandler(testLogger(), &fakeOrderService{})

	req := httptest.NewRequest("PUT", "/api/orders/7/status", bytes.NewBufferString(`{"status": "paid"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "7")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 1, models.RoleUser))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "paid", resp.Status)
}

func TestAdminHandlers_RequireAdminRole(t *testing.T) {
	handler := handlers.AdminListProductsHandler(testLogger(), &fakeAdminService{})

	req := httptest.NewRequest("GET", "/api/admin/products", nil)
	rr := httptest.NewRecorder()

	// Обычный пользователь получает отказ
	handler.ServeHTTP(rr, withUser(req, 1, models.RoleUser))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	isErr, msg := decodeError(t, rr)
	assert.True(t, isErr)
	assert.Equal(t, "admin access required", msg)
}

func TestAdminCreateProductHandler_Success(t *testing.T) {
	fakeSvc := &fakeAdminService{product: &models.Product{ID: 1, Title: "Шелк", Price: 100}}
	handler := handlers.AdminCreateProductHandler(testLogger(), fakeSvc)

	reqBody := `{"title": "Шелк", "price": 100, "stock": 10}`
	req := httptest.NewRequest("POST", "/api/admin/products", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 1, models.RoleAdmin))

	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestAdminCreateProductHandler_MissingPrice(t *testing.T) {
	handler := handlers.AdminCreateProductHandler(testLogger(), &fakeAdminService{})

	req := httptest.NewRequest("POST", "/api/admin/products", bytes.NewBufferString(`{"title": "Шелк"}`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, withUser(req, 1, models.RoleAdmin))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{user: &models.User{ID: 1, Email: "anna@example.com", Role: models.RoleUser}}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"first_name": "Anna", "last_name": "Petrova", "email": "anna@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "anna@example.com", resp.User.Email)
	// Хэш пароля в ответ не попадает
	assert.NotContains(t, rr.Body.String(), "pass_hash")
}

func TestRegisterHandler_Conflict(t *testing.T) {
	fakeSvc := &fakeAuthService{err: apperr.Conflict("user already exists")}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"first_name": "Anna", "last_name": "Petrova", "email": "anna@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLoginHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token", user: &models.User{ID: 1, Email: "anna@example.com"}}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "anna@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "test-token", resp.Token)
}

func TestLoginHandler_BadCredentials(t *testing.T) {
	fakeSvc := &fakeAuthService{err: apperr.Unauthorized("bad email or password")}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "anna@example.com", "password": "wrong"}`
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	isErr, msg := decodeError(t, rr)
	assert.True(t, isErr)
	assert.Equal(t, "bad email or password", msg)
}

func TestListProductsHandler_BadQueryParams(t *testing.T) {
	handler := handlers.ListProductsHandler(testLogger(), nil)

	req := httptest.NewRequest("GET", "/api/catalog/products?page=abc", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	isErr, msg := decodeError(t, rr)
	assert.True(t, isErr)
	assert.Equal(t, "bad query parameters", msg)
}
