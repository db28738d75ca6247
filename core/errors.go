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

import "errors"

// Domain errors
var (
	// ErrNotFound indicates that a product or order does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidProduct indicates a Product failed validation.
	ErrInvalidProduct = errors.New("invalid product")

	// ErrEmptyProductID indicates the product ID field is empty.
	ErrEmptyProductID = errors.New("product id cannot be empty")

	// ErrNegativePrice indicates a product price below zero.
	ErrNegativePrice = errors.New("price cannot be negative")

	// ErrNegativeStock indicates a product stock below zero.
	ErrNegativeStock = errors.New("stock cannot be negative")

	// ErrEmptyOrder indicates an order request without items.
	ErrEmptyOrder = errors.New("no items in order")

	// ErrInvalidQuantity indicates a line item quantity below one.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrInsufficientStock indicates the catalog cannot cover a line item.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotCancellable indicates the order already reached a final state.
	ErrOrderNotCancellable = errors.New("order cannot be cancelled")
)
