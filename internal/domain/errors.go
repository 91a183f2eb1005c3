package domain

import "fmt"

// ErrorKind classifies business errors so the transport layer can pick a status code.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindNotFound
	KindForbidden
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindNotFound:
		return "NOT_FOUND"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN"
	}
}

// Error is a business rule rejection. Two errors are equal under errors.Is
// when their codes match, so a message built at runtime still matches its sentinel.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func newError(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// withMessage returns a copy of e carrying a formatted message.
func (e *Error) withMessage(format string, args ...interface{}) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// Validation errors
var (
	ErrPromotionCodeRequired = newError(KindValidation, "promotion_code_required", "promotion code is required")
	ErrOrderIDRequired       = newError(KindValidation, "order_id_required", "order id is required")
	ErrInvalidOrderStatus    = newError(KindValidation, "invalid_order_status", "invalid order status")
	ErrInvalidCategory       = newError(KindValidation, "invalid_category", "invalid product category")
	ErrInvalidSpecification  = newError(KindValidation, "invalid_specification", "invalid product specification")
	ErrInvalidDateRange      = newError(KindValidation, "invalid_date_range", "start date must be before end date")
	ErrInvalidDiscountValue  = newError(KindValidation, "invalid_discount_value", "invalid discount value")
	ErrInvalidDiscountType   = newError(KindValidation, "invalid_discount_type", "discount type must be percentage or fixed")
	ErrInvalidQuantity       = newError(KindValidation, "invalid_quantity", "quantity must not be negative")
	ErrInvalidPrice          = newError(KindValidation, "invalid_price", "price must be between 0 and the catalog maximum")
	ErrAmountTooLarge        = newError(KindValidation, "amount_too_large", "order amount exceeds the supported maximum")
	ErrEmptyOrder            = newError(KindValidation, "empty_order", "order must have at least one item")
	ErrProductImagesRequired = newError(KindValidation, "product_images_required", "product must have at least one image")
	ErrCompareSelection      = newError(KindValidation, "invalid_compare_selection", "select between 1 and 4 products to compare")
	ErrAddressRequired       = newError(KindValidation, "address_required", "shipping address is required")
)

// Promotion rejections
var (
	ErrPromotionNotFound     = newError(KindNotFound, "promotion_not_found", "promotion code not found")
	ErrPromotionInactive     = newError(KindValidation, "promotion_inactive", "promotion is not active")
	ErrPromotionNotStarted   = newError(KindValidation, "promotion_not_started", "promotion has expired or not started yet")
	ErrPromotionExpired      = newError(KindValidation, "promotion_expired", "promotion has expired or not started yet")
	ErrPromotionUsageLimit   = newError(KindValidation, "promotion_usage_limit", "promotion usage limit reached")
	ErrMinimumPurchaseNotMet = newError(KindValidation, "minimum_purchase_not_met", "minimum purchase amount not met")
	ErrPromotionExists       = newError(KindConflict, "promotion_exists", "promotion code already exists")
)

// Order lifecycle
var (
	ErrOrderNotFound         = newError(KindNotFound, "order_not_found", "order not found")
	ErrNotOrderOwner         = newError(KindForbidden, "not_order_owner", "order does not belong to this user")
	ErrCannotCancelDelivered = newError(KindConflict, "cannot_cancel_delivered", "cannot cancel delivered order")
	ErrOrderTerminal         = newError(KindConflict, "order_terminal", "order is already in a final state")
	ErrInvalidTransition     = newError(KindConflict, "invalid_transition", "invalid order status transition")
)

// Catalog and addresses
var (
	ErrProductNotFound = newError(KindNotFound, "product_not_found", "product not found")
	ErrNotProductOwner = newError(KindForbidden, "not_product_owner", "product belongs to another seller")
	ErrSellerOnly      = newError(KindForbidden, "seller_only", "a seller account is required")
	ErrAddressNotFound = newError(KindNotFound, "address_not_found", "address not found")
)
