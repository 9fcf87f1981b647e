package domain

import "time"

type ProductStatus int32

const (
	StatusNone ProductStatus = iota
	StatusInStock
	StatusLow
	StatusOutOfStock
)

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	Status      ProductStatus
	CreatedAt   time.Time
}
