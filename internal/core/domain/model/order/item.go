package order

import (
	"errors"
	"fmt"
	"slices"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/pkg/errs"
)

// Item is one order line. It either references a catalog product or, for a
// build-your-own item, carries the ingredient ids it is made of. Never both.
type Item struct {
	productID   *int64
	ingredients []int64
	quantity    int
	unitPrice   kernel.Money
}

// NewItem builds a line from request data. A non-empty ingredient list makes the
// item custom and clears the product reference; otherwise productID is required.
func NewItem(productID *int64, ingredients []int64, quantity int, unitPrice kernel.Money) (Item, error) {
	if len(ingredients) > 0 {
		return NewCustomItem(ingredients, quantity, unitPrice)
	}
	if productID == nil {
		return Item{}, errs.NewValueIsRequiredError("productId")
	}
	return NewProductItem(*productID, quantity, unitPrice)
}

// NewProductItem builds a line for a catalog product.
func NewProductItem(productID int64, quantity int, unitPrice kernel.Money) (Item, error) {
	var idErr error
	if productID <= 0 {
		idErr = errs.NewValueIsInvalidErrorWithCause("productId", fmt.Errorf("%d is not a valid product id", productID))
	}
	if err := errors.Join(idErr, validateQuantity(quantity), validateUnitPrice(unitPrice)); err != nil {
		return Item{}, err
	}
	return Item{productID: &productID, quantity: quantity, unitPrice: unitPrice}, nil
}

// NewCustomItem builds a build-your-own line from ingredient ids.
func NewCustomItem(ingredients []int64, quantity int, unitPrice kernel.Money) (Item, error) {
	var ingredientsErr error
	if len(ingredients) == 0 {
		ingredientsErr = errs.NewValueIsRequiredError("ingredients")
	}
	for _, id := range ingredients {
		if id <= 0 {
			ingredientsErr = errs.NewValueIsInvalidErrorWithCause(
				"ingredients", fmt.Errorf("%d is not a valid ingredient id", id),
			)
			break
		}
	}
	if err := errors.Join(ingredientsErr, validateQuantity(quantity), validateUnitPrice(unitPrice)); err != nil {
		return Item{}, err
	}
	return Item{ingredients: slices.Clone(ingredients), quantity: quantity, unitPrice: unitPrice}, nil
}

func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	return nil
}

func validateUnitPrice(price kernel.Money) error {
	if !price.IsPositive() {
		return errs.NewValueIsInvalidErrorWithCause("price", fmt.Errorf("%s is not greater than 0", price))
	}
	return nil
}

// ProductID returns the catalog product and true, or false for a custom item.
func (i Item) ProductID() (int64, bool) {
	if i.productID == nil {
		return 0, false
	}
	return *i.productID, true
}

// Ingredients returns a copy of the ingredient ids of a custom item.
func (i Item) Ingredients() []int64 {
	return slices.Clone(i.ingredients)
}

func (i Item) Quantity() int {
	return i.quantity
}

func (i Item) UnitPrice() kernel.Money {
	return i.unitPrice
}

// IsCustom reports whether the item is built from ingredients.
func (i Item) IsCustom() bool {
	return len(i.ingredients) > 0
}

// Subtotal is unit price × quantity.
func (i Item) Subtotal() kernel.Money {
	return i.unitPrice.Times(i.quantity)
}
