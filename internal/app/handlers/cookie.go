package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/linemk/tkani-shop/internal/domain/models"
)

// CartCookieName — имя cookie, в которой клиент держит корзину
const CartCookieName = "cart"

// readCartCookie восстанавливает корзину из запроса. Значение хранится
// URL-кодированным JSON-объектом. Отсутствующая или битая cookie дает
// пустую корзину, ошибки не возвращаются
func readCartCookie(r *http.Request) models.Cart {
	cookie, err := r.Cookie(CartCookieName)
	if err != nil {
		return models.Cart{}
	}
	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return models.Cart{}
	}
	return models.ParseCartCookie(raw)
}

// writeCartCookie записывает новое состояние корзины клиенту.
// JSON кодируется через url.QueryEscape: кавычки в сыром виде в значении
// cookie не выживают. Cookie нарочно не HttpOnly: фронтенд читает ее напрямую
func writeCartCookie(w http.ResponseWriter, cart models.Cart, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    url.QueryEscape(cart.Serialize()),
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCartCookie выставляет немедленно истекающую cookie
func clearCartCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
	})
}
