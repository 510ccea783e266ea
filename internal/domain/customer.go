package domain

// Customer is owned by the external customer directory.
type Customer struct {
	ID             int64  `json:"id"`
	CustomerNumber string `json:"customer_number"`
	CustomerName   string `json:"customer_name"`
	City           string `json:"city,omitempty"`
	State          string `json:"state,omitempty"`
	PrimaryPhone   string `json:"primary_phone,omitempty"`
	PrimaryEmail   string `json:"primary_email,omitempty"`
}
