package models

import (
	"time"

	"gorm.io/datatypes"
)

const IntegrationTypeMercadoPago = "MERCADOPAGO"

// VendorIntegrationConfig is the credential blob stored per integration.
type VendorIntegrationConfig struct {
	AccessToken string `json:"access_token"`
	PublicKey   string `json:"public_key,omitempty"`
	// IsTest marks sandbox credentials.
	IsTest bool `json:"is_test,omitempty"`
}

// VendorIntegration holds a vendor's payment processor credentials. At most one row
// per (vendor, integration type) is active.
type VendorIntegration struct {
	ID              string                                      `gorm:"column:id;type:uuid;primary_key" json:"id"`
	VendorID        string                                      `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:idx_vendor_integration_active,priority:1,where:active = true" json:"vendor_id"`
	IntegrationType string                                      `gorm:"column:integration_type;type:varchar(64);not null;uniqueIndex:idx_vendor_integration_active,priority:2,where:active = true" json:"integration_type"`
	Active          bool                                        `gorm:"column:active;not null;default:false" json:"active"`
	Config          datatypes.JSONType[VendorIntegrationConfig] `gorm:"column:config;type:jsonb;not null;default:'{}'" json:"config"`
	CreatedAt       time.Time                                   `json:"created_at"`
	UpdatedAt       time.Time                                   `json:"updated_at"`
}

func (VendorIntegration) TableName() string {
	return "vendor_integrations"
}
