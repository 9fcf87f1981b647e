// Package wire defines the JSON models exchanged between services and the
// conversion functions between them and the domain entities. Streams are
// newline-delimited JSON: a finite, one-shot sequence of elements.
package wire

import "time"

type Cart struct {
	UserName string     `json:"username"`
	Items    []CartItem `json:"items"`
}

type CartItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Color       string  `json:"color"`
	Quantity    int32   `json:"quantity"`
}

// AddItemRequest is one element of the AddItems client stream. Elements are
// independent: each carries its own username and discount code.
type AddItemRequest struct {
	UserName     string   `json:"username"`
	DiscountCode string   `json:"discount_code"`
	NewCartItem  CartItem `json:"new_cart_item"`
}

type AddItemsResponse struct {
	Success     bool  `json:"success"`
	InsertCount int64 `json:"insert_count"`
}

type RemoveItemResponse struct {
	Success bool `json:"success"`
}

type Product struct {
	ProductID   int64     `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Status      int32     `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type BulkInsertResponse struct {
	Success     bool  `json:"success"`
	InsertCount int64 `json:"insert_count"`
}

type DeleteProductResponse struct {
	Success bool `json:"success"`
}

type Discount struct {
	DiscountID int64   `json:"discount_id"`
	Code       string  `json:"code"`
	Amount     float64 `json:"amount"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type DiscoveryDocument struct {
	Issuer        string `json:"issuer"`
	TokenEndpoint string `json:"token_endpoint"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
