package stdx

// Must1 returns v, or panics with err when it is not nil. Reserved for
// start-up code where a failure leaves nothing sensible to do.
func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
