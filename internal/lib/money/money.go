package money

import "github.com/shopspring/decimal"

// Round2 округляет денежную сумму до двух знаков без накопления
// двоичной погрешности float64
func Round2(amount float64) float64 {
	result, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	return result
}

// LineTotal считает стоимость позиции: цена на количество, округленная до копеек
func LineTotal(price float64, quantity int) float64 {
	result, _ := decimal.NewFromFloat(price).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2).
		Float64()
	return result
}
