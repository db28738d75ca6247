package core

import (
	"errors"
	"testing"
)

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name    string
		product *Product
		wantErr error
	}{
		{
			name:    "valid product",
			product: &Product{ID: "P1", Name: "Camera", Price: 10, Stock: 1},
			wantErr: nil,
		},
		{
			name:    "valid product out of stock",
			product: &Product{ID: "P1", Stock: 0},
			wantErr: nil,
		},
		{
			name:    "nil product",
			product: nil,
			wantErr: ErrInvalidProduct,
		},
		{
			name:    "empty id",
			product: &Product{Name: "Camera"},
			wantErr: ErrEmptyProductID,
		},
		{
			name:    "negative price",
			product: &Product{ID: "P1", Price: -1},
			wantErr: ErrNegativePrice,
		},
		{
			name:    "negative stock",
			product: &Product{ID: "P1", Stock: -2},
			wantErr: ErrNegativeStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(tt.product)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateProduct() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateProduct() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidProduct) {
				t.Errorf("ValidateProduct() error = %v, want wrapped %v", err, ErrInvalidProduct)
			}
		})
	}
}

func TestValidateLineItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []LineItem
		wantErr error
	}{
		{"valid", []LineItem{{ProductID: "P1", Quantity: 2}}, nil},
		{"empty", nil, ErrEmptyOrder},
		{"missing product", []LineItem{{Quantity: 1}}, ErrEmptyProductID},
		{"zero quantity", []LineItem{{ProductID: "P1", Quantity: 0}}, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLineItems(tt.items)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateLineItems() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateLineItems() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
