package domain

import "time"

// Cart is one user's shopping cart. UserName is the cart identity: at most
// one cart exists per user name, enforced by a unique index in the store.
// Version is the persistence revision used for conditional updates; a stale
// version on persist signals a concurrent writer.
type Cart struct {
	ID        string     `bson:"_id,omitempty"`
	UserName  string     `bson:"user_name"`
	Items     []CartItem `bson:"items"`
	Version   int64      `bson:"version"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// CartItem is one product line, keyed by ProductID within its cart. Price is
// already discount-adjusted at insertion time and is never touched again,
// even if later add requests carry a different discount code.
type CartItem struct {
	ProductID   int64   `bson:"product_id"`
	ProductName string  `bson:"product_name"`
	Price       float64 `bson:"price"`
	Color       string  `bson:"color"`
	Quantity    int32   `bson:"quantity"`
}

// Item returns a pointer to the line with the given product id, or nil.
func (c *Cart) Item(productID int64) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// RemoveItem deletes the line with the given product id, preserving insertion
// order of the rest. Returns false if no such line exists.
func (c *Cart) RemoveItem(productID int64) bool {
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}
