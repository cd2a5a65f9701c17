package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered customer or admin.
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Category groups products and is addressed by slug.
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	SortOrder   int       `db:"sort_order" json:"sort_order"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a catalog entry. Stock is the only field checkout mutates and
// it must never go negative.
type Product struct {
	ID          string          `db:"id" json:"id"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	ImageURL    string          `db:"image_url" json:"image_url"`
	SKU         string          `db:"sku" json:"sku"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CartItem is one product+quantity line in a user's active cart,
// unique per (user, product).
type CartItem struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	Product   Product   `db:"product" json:"product"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order is a committed checkout. Totals are frozen at creation; only the
// status fields and their timestamps change afterwards.
type Order struct {
	ID            string          `db:"id" json:"id"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	UserID        string          `db:"user_id" json:"user_id"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaymentStatus PaymentStatus   `db:"payment_status" json:"payment_status"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"tax" json:"tax"`
	ShippingCost  decimal.Decimal `db:"shipping_cost" json:"shipping_cost"`
	Discount      decimal.Decimal `db:"discount" json:"discount"`
	Total         decimal.Decimal `db:"total" json:"total"`

	ShippingName    string `db:"shipping_name" json:"shipping_name"`
	ShippingEmail   string `db:"shipping_email" json:"shipping_email"`
	ShippingPhone   string `db:"shipping_phone" json:"shipping_phone"`
	ShippingAddress string `db:"shipping_address" json:"shipping_address"`
	ShippingCity    string `db:"shipping_city" json:"shipping_city"`
	ShippingState   string `db:"shipping_state" json:"shipping_state"`
	ShippingZip     string `db:"shipping_zip" json:"shipping_zip"`
	ShippingCountry string `db:"shipping_country" json:"shipping_country"`
	CustomerNotes   string `db:"customer_notes" json:"customer_notes"`

	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	ShippedAt   *time.Time `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is a line of an order. The product_* columns are snapshots taken
// at checkout time and are never re-derived from the live product.
type OrderItem struct {
	ID                 string          `db:"id" json:"id"`
	OrderID            string          `db:"order_id" json:"order_id"`
	ProductID          string          `db:"product_id" json:"product_id"`
	Quantity           int             `db:"quantity" json:"quantity"`
	Price              decimal.Decimal `db:"price" json:"price"`
	Subtotal           decimal.Decimal `db:"subtotal" json:"subtotal"`
	ProductName        string          `db:"product_name" json:"product_name"`
	ProductDescription string          `db:"product_description" json:"product_description"`
	ProductImageURL    string          `db:"product_image_url" json:"product_image_url"`
	ProductSKU         string          `db:"product_sku" json:"product_sku"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}

// WishlistItem marks a product saved by a user, unique per (user, product).
type WishlistItem struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Product   Product   `db:"product" json:"product"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Review is a user's rating of a product, one per (user, product).
// IsVerified is set when the user has a delivered order containing the product.
type Review struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	Rating     int       `db:"rating" json:"rating"`
	Title      string    `db:"title" json:"title"`
	Comment    string    `db:"comment" json:"comment"`
	IsVerified bool      `db:"is_verified" json:"is_verified"`
	IsApproved bool      `db:"is_approved" json:"is_approved"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
