package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted documents carry prices as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Role is the access level of a user
type Role string

// User roles
const (
	RoleCustomer Role = "CUSTOMER"
	RoleAdmin    Role = "ADMIN"
)

// Category is the closed set of catalog departments
type Category string

// Product categories
const (
	CategoryMensWear      Category = "Men's Wear"
	CategoryWomensWear    Category = "Women's Wear"
	CategoryKidsWear      Category = "Kids' Wear"
	CategoryMensWatches   Category = "Men's Watches"
	CategoryWomensWatches Category = "Women's Watches"
	CategoryElectronics   Category = "Electronics"
	CategoryGrocery       Category = "Grocery"
	CategoryMobile        Category = "Mobile"
	CategoryHome          Category = "Home"
	CategoryBeauty        Category = "Beauty"
)

// Categories lists every category in catalog order
var Categories = []Category{
	CategoryMensWear,
	CategoryWomensWear,
	CategoryKidsWear,
	CategoryMensWatches,
	CategoryWomensWatches,
	CategoryElectronics,
	CategoryGrocery,
	CategoryMobile,
	CategoryHome,
	CategoryBeauty,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// User represents a registered shopper or administrator
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Password string   `json:"password,omitempty"`
	Wishlist []string `json:"wishlist,omitempty"`
}

// Public returns a copy of the user without the password
func (u User) Public() User {
	u.Password = ""
	if u.Wishlist != nil {
		u.Wishlist = append([]string(nil), u.Wishlist...)
	}
	return u
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Product represents a product in the catalog
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Stock       int             `json:"stock"`
}

// CartItem is a requested product and quantity
type CartItem struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// LineItem is a cart item with the price and name frozen at placement time
type LineItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
}

// Extension returns price times quantity
func (li LineItem) Extension() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ShippingAddress is the delivery snapshot stored on an order
type ShippingAddress struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Address string `json:"address" binding:"required"`
	City    string `json:"city" binding:"required"`
	Zip     string `json:"zip" binding:"required"`
}

// Order represents a placed customer order
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	Items           []LineItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
}

// Subtotal sums the line extensions
func (o Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Extension())
	}
	return total
}

// DashboardStats summarises the store for the admin panel
type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalOrders    int             `json:"totalOrders"`
	TotalProducts  int             `json:"totalProducts"`
	TotalCustomers int             `json:"totalCustomers"`
}

// State is the whole persisted document
type State struct {
	Users       []User    `json:"users"`
	Products    []Product `json:"products"`
	Orders      []Order   `json:"orders"`
	CurrentUser *User     `json:"currentUser"`
	Version     int64     `json:"version,omitempty"`
}

// FindUserByEmail returns the index of the user with the exact email, or -1
func (s *State) FindUserByEmail(email string) int {
	for i := range s.Users {
		if s.Users[i].Email == email {
			return i
		}
	}
	return -1
}

// FindUser returns the index of the user with the given id, or -1
func (s *State) FindUser(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

// FindProduct returns the index of the product with the given id, or -1
func (s *State) FindProduct(id string) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}

// FindOrder returns the index of the order with the given id, or -1
func (s *State) FindOrder(id string) int {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return i
		}
	}
	return -1
}
