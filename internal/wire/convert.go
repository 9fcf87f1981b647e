package wire

import (
	cartdomain "github.com/amunra1102/grpc-asp-demo/internal/cart/domain"
	catalogdomain "github.com/amunra1102/grpc-asp-demo/internal/catalog/domain"
)

func CartToWire(c *cartdomain.Cart) Cart {
	out := Cart{
		UserName: c.UserName,
		Items:    make([]CartItem, len(c.Items)),
	}
	for i, item := range c.Items {
		out.Items[i] = CartItemToWire(item)
	}
	return out
}

func CartItemToWire(i cartdomain.CartItem) CartItem {
	return CartItem{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Price:       i.Price,
		Color:       i.Color,
		Quantity:    i.Quantity,
	}
}

func CartItemFromWire(i CartItem) cartdomain.CartItem {
	return cartdomain.CartItem{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Price:       i.Price,
		Color:       i.Color,
		Quantity:    i.Quantity,
	}
}

func ProductToWire(p *catalogdomain.Product) Product {
	return Product{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Status:      int32(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

func ProductFromWire(p Product) catalogdomain.Product {
	return catalogdomain.Product{
		ID:          p.ProductID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Status:      catalogdomain.ProductStatus(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}
