package providers

import (
	"errors"
	"fmt"

	"ticketing-sync/core/httpclient"
	"ticketing-sync/feature/ticketing/lite"
)

// HTTPError is a non-2xx provider response.
type HTTPError = httpclient.StatusError

// AssertionError is an internal consistency failure.
type AssertionError = lite.AssertionError

// ContractViolationError reports a response that does not have the documented shape.
type ContractViolationError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ContractViolationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: unexpected response: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: unexpected response: %s", e.Provider, e.Reason)
}

func (e *ContractViolationError) Unwrap() error {
	return e.Err
}

// ForeignTaxJurisdictionError reports a price taxed outside the supported jurisdiction.
type ForeignTaxJurisdictionError struct {
	Provider  string
	Reference string
	Country   string
}

func (e *ForeignTaxJurisdictionError) Error() string {
	return fmt.Sprintf("%s: %s is taxed in %s, only FR is supported", e.Provider, e.Reference, e.Country)
}

// UnmatchedTicketCategoryError reports a sold ticket whose price tier is unknown.
type UnmatchedTicketCategoryError struct {
	Provider string
	Serie    string
	Ticket   string
	Category string
}

func (e *UnmatchedTicketCategoryError) Error() string {
	return fmt.Sprintf("%s: ticket %s of series %s references unknown price tier %s", e.Provider, e.Ticket, e.Serie, e.Category)
}

// Contract converts decode failures into ContractViolationError and leaves other errors as-is.
func Contract(provider string, err error) error {
	if err == nil {
		return nil
	}
	var decodeErr *httpclient.DecodeError
	if errors.As(err, &decodeErr) {
		return &ContractViolationError{Provider: provider, Reason: "undecodable body from " + decodeErr.URL, Err: decodeErr.Err}
	}
	return err
}

// Violation builds a ContractViolationError.
func Violation(provider, format string, args ...any) error {
	return &ContractViolationError{Provider: provider, Reason: fmt.Sprintf(format, args...)}
}
