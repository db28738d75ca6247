// Package catalog holds the storefront data: products, orders, product FAQs
// and company policies.
//
// A Store is created explicitly, either in memory with NewStore or from a
// data directory with Load, and passed to the components that read it.
// Reads return copies and never block each other. CreateOrder and
// CancelOrder take the write lock and, for stores loaded from a directory,
// write the changed files back in their original snake_case schema.
//
// Listeners registered with OnChange run after every product mutation, which
// is how the vector index learns that its stock snapshot is stale.
package catalog
