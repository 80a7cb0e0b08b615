package contract

import "fmt"

var (
	errNegativeQty           = fmt.Errorf("contract quantity cannot be negative")
	errSettledExceedsQty     = fmt.Errorf("settled quantity cannot exceed contract quantity")
	errExpiryBeforeEffective = fmt.Errorf("expiry date cannot precede effective date")
)

func errInvalidType(t Type) error {
	return fmt.Errorf("invalid contract type %q", t)
}
