package core

// MulQuantity multiplies a unit price by a quantity, rejecting overflow.
// Both operands must be positive.
func MulQuantity(unitPrice, quantity int64) (int64, error) {
	if unitPrice <= 0 {
		return 0, ErrInvalidPrice
	}
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	total := unitPrice * quantity
	if total/quantity != unitPrice {
		return 0, ErrInvalidAmount
	}
	return total, nil
}

// FeeSplit computes floor(total*bps/10000) and the seller remainder.
// fee + sellerAmount == total holds exactly for any total and bps in
// [0, 10000]. The quotient/remainder decomposition keeps the intermediate
// products inside int64 even when total is near the int64 maximum.
func FeeSplit(total, bps int64) (fee, sellerAmount int64) {
	fee = total/10000*bps + total%10000*bps/10000
	return fee, total - fee
}
