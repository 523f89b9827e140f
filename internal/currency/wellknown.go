package currency

// Currencies the tracked regions list in.
var (
	USD = New("USD", "$", "US Dollar", 2)
	EUR = New("EUR", "€", "Euro", 2)
	GBP = New("GBP", "£", "Pound Sterling", 2)
	JPY = New("JPY", "¥", "Japanese Yen", 0)
	INR = New("INR", "₹", "Indian Rupee", 2)
	CAD = New("CAD", "C$", "Canadian Dollar", 2)
	AUD = New("AUD", "A$", "Australian Dollar", 2)
)

// DefaultRegistry returns a registry with the well-known currencies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(USD, "US$")
	r.Register(EUR)
	r.Register(GBP)
	r.Register(JPY, "円", "￥")
	r.Register(INR, "Rs.", "Rs", "₨")
	r.Register(CAD, "CA$")
	r.Register(AUD, "AU$")
	return r
}
