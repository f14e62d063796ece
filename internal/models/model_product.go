package models

import "time"

// Product is read to enrich webhook payloads.
type Product struct {
	ID        string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID    *string   `gorm:"column:user_id;type:uuid" json:"user_id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Price     int64     `gorm:"column:price;not null;default:0" json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
