// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
)

// ValidateProduct validates a Product according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Price must not be negative
//   - Stock must not be negative
//
// NOT validated:
//   - Name and Description (empty text simply never matches a search)
//   - Rating (source data uses several scales)
func ValidateProduct(product *Product) error {
	if product == nil {
		return fmt.Errorf("%w: product is nil", ErrInvalidProduct)
	}

	if product.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, ErrEmptyProductID)
	}

	if product.Price < 0 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidProduct, product.ID, ErrNegativePrice)
	}

	if product.Stock < 0 {
		return fmt.Errorf("%w: %s: %w", ErrInvalidProduct, product.ID, ErrNegativeStock)
	}

	return nil
}

// ValidateLineItems checks an order request before any stock is touched.
func ValidateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range items {
		if item.ProductID == "" {
			return ErrEmptyProductID
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, item.ProductID)
		}
	}
	return nil
}
