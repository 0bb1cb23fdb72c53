package domain

// GuardResult is the outcome of a guard check (rate limiter, circuit
// breaker). A denied result carries the guard name and human reason.
type GuardResult struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Guard   string `json:"guard,omitempty"`
}
