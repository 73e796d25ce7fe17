package domain

// OptionalUSD is a USD valuation that may be absent.
//
// Every computation reads it through OrZero, which is the single place where a
// missing valuation becomes 0. Callers that need to flag incomplete data check IsSet.
type OptionalUSD struct {
	value float64
	set   bool
}

// USD returns a present valuation.
func USD(v float64) OptionalUSD {
	return OptionalUSD{value: v, set: true}
}

// NoUSD returns an absent valuation.
func NoUSD() OptionalUSD {
	return OptionalUSD{}
}

// USDFromPtr converts a nullable column or JSON field.
func USDFromPtr(v *float64) OptionalUSD {
	if v == nil {
		return NoUSD()
	}
	return USD(*v)
}

// IsSet reports whether the valuation is present.
func (o OptionalUSD) IsSet() bool {
	return o.set
}

// OrZero returns the valuation, or 0 when it is absent.
func (o OptionalUSD) OrZero() float64 {
	if !o.set {
		return 0
	}
	return o.value
}

// Ptr returns nil for an absent valuation.
func (o OptionalUSD) Ptr() *float64 {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}
