package shopify

import (
	"strconv"
	"time"

	"github.com/jrsteele09/store-insights/internal/money"
)

// Customer is the subset of the Admin API customer resource that is synced.
type Customer struct {
	ID         int64        `json:"id"`
	Email      string       `json:"email"`
	FirstName  string       `json:"first_name"`
	LastName   string       `json:"last_name"`
	TotalSpent money.Amount `json:"total_spent"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (c Customer) ExternalID() string { return strconv.FormatInt(c.ID, 10) }

type Product struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Product) ExternalID() string { return strconv.FormatInt(p.ID, 10) }

type Order struct {
	ID         int64          `json:"id"`
	TotalPrice money.Amount   `json:"total_price"`
	Currency   string         `json:"currency"`
	CreatedAt  time.Time      `json:"created_at"`
	Customer   *OrderCustomer `json:"customer"` // Nil for guest checkouts
}

func (o Order) ExternalID() string { return strconv.FormatInt(o.ID, 10) }

// CustomerExternalID returns the remote customer id, or "" for guest orders.
func (o Order) CustomerExternalID() string {
	if o.Customer == nil || o.Customer.ID == 0 {
		return ""
	}
	return strconv.FormatInt(o.Customer.ID, 10)
}

type OrderCustomer struct {
	ID int64 `json:"id"`
}

type customersPage struct {
	Customers []Customer `json:"customers"`
}

type productsPage struct {
	Products []Product `json:"products"`
}

type ordersPage struct {
	Orders []Order `json:"orders"`
}
