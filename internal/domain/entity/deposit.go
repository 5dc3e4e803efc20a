package entity

import "time"

// Deposit depósito o sucursal donde se lleva el stock. Uno de ellos es el predeterminado.
type Deposit struct {
	ID          string
	Name        string
	Description string
	IsDefault   bool
	CreatedAt   time.Time
}
