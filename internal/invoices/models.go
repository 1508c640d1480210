package invoices

import "time"

type Invoice struct {
	ID          int64      `json:"id"`
	Code        string     `json:"invoice_code"`
	UserID      string     `json:"user_id"`
	UserName    string     `json:"username"`
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	UnitPrice   int64      `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	TotalPrice  int64      `json:"total_price"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DueAt       time.Time  `json:"due_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	Notes       string     `json:"notes"`
	HandledBy   string     `json:"handled_by"`
}

type Customer struct {
	ID   string
	Name string
}

// ProductRef selects a product by id, or by case-insensitive name when ID is zero.
type ProductRef struct {
	ID   int64
	Name string
}

type PaymentResult struct {
	InvoiceCode string    `json:"invoice_code"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"username"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	TotalPrice  int64     `json:"total_price"`
	NewStock    int       `json:"new_stock"`
	PaidAt      time.Time `json:"paid_at"`
}

type Dashboard struct {
	ProductCount int64            `json:"product_count"`
	TotalStock   int64            `json:"total_stock"`
	ByStatus     map[Status]int64 `json:"by_status"`
	Revenue      int64            `json:"revenue"`
}
