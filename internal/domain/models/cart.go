package models

import (
	"encoding/json"
	"strconv"
)

// Cart — корзина покупателя: отображение id товара в количество.
// Хранится только на клиенте в cookie, на сервере восстанавливается на каждый запрос
type Cart map[int64]int

// ParseCartCookie восстанавливает корзину из значения cookie.
// Любое битое содержимое (не JSON, не объект, нечисловые ключи или значения)
// не считается ошибкой — возвращается пустая корзина
func ParseCartCookie(raw string) Cart {
	cart := Cart{}
	if raw == "" {
		return cart
	}
	var decoded map[string]float64
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return Cart{}
	}
	for key, qty := range decoded {
		pid, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return Cart{}
		}
		cart[pid] = int(qty)
	}
	return cart
}

// Serialize кодирует корзину в значение cookie (JSON-объект со строковыми ключами)
func (c Cart) Serialize() string {
	payload := make(map[string]int, len(c))
	for pid, qty := range c {
		payload[strconv.FormatInt(pid, 10)] = qty
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Set выставляет количество товара; ноль и меньше удаляет позицию целиком
func (c Cart) Set(productID int64, quantity int) {
	if quantity <= 0 {
		delete(c, productID)
		return
	}
	c[productID] = quantity
}

// Remove убирает товар из корзины, отсутствующий ключ — не ошибка
func (c Cart) Remove(productID int64) {
	delete(c, productID)
}

// ProductIDs возвращает список id товаров для пакетной загрузки
func (c Cart) ProductIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for pid := range c {
		ids = append(ids, pid)
	}
	return ids
}
