// Package catalog defines the product store contract shared by every
// database driver, plus the validation rules all drivers apply.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"inventoryKeeper/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Store is the durable product table. Every mutating call is persisted
// before it returns.
//
// List matches the filter as a case-insensitive substring and returns
// products in id order. FindByName is an exact, case-sensitive match; when
// several products share a name the lowest id wins.
type Store interface {
	Create(ctx context.Context, name string, price decimal.Decimal, imageRef string) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter string) ([]models.Product, error)
	FindByName(ctx context.Context, name string) (models.Product, bool, error)
	// UpdatePriceAndImage always overwrites the price. An empty imageRef
	// leaves the stored image untouched.
	UpdatePriceAndImage(ctx context.Context, id int64, price decimal.Decimal, imageRef string) error
	// Batch runs fn against a transactional view of the store. Writes made
	// through tx become visible together when fn returns nil and are
	// discarded when it returns an error.
	Batch(ctx context.Context, fn func(tx Store) error) error
	Close() error
}

// NormalizeName trims the name and rejects it when nothing is left. Invalid
// UTF-8 sequences become U+FFFD so every driver stores and indexes the same
// bytes the JSON and BSON encoders would write.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(LookupName(name))
	if name == "" {
		return "", fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	return name, nil
}

// LookupName maps name onto the bytes a stored name would have, without
// trimming, so FindByName stays an exact match.
func LookupName(name string) string {
	return strings.ToValidUTF8(name, "\uFFFD")
}

// ParsePrice accepts numbers, numeric strings and json.Number. The second
// return is false when the value was absent, unparsable or negative, in
// which case the price is zero.
func ParsePrice(v any) (decimal.Decimal, bool) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Zero, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// NormalizePrice clamps negative prices to zero.
func NormalizePrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// MatchesFilter reports whether name contains filter, ignoring case.
func MatchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}
