package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidTransition indicates an order status change that is not in the transition table.
var ErrInvalidTransition = errors.New("invalid order status transition")

// ErrInsufficientFunds indicates a wallet operation that would drive the balance negative.
var ErrInsufficientFunds = errors.New("insufficient wallet funds")

// ErrInsufficientCoverage indicates a rate generation that priced fewer than two countries.
var ErrInsufficientCoverage = errors.New("insufficient country coverage for rate generation")

// ErrNoActiveRate indicates that no rate version is currently active.
var ErrNoActiveRate = errors.New("no active rate version")

// ErrRouteUnavailable indicates the rate version does not price the requested route.
var ErrRouteUnavailable = errors.New("route not priced in rate version")

// ErrQuoteUnavailable indicates a transient failure fetching a market quote upstream.
var ErrQuoteUnavailable = errors.New("market quote unavailable")

// ErrConcurrencyConflict indicates a conditional update affected zero rows because
// another transaction won the race.
var ErrConcurrencyConflict = errors.New("concurrent modification conflict")
