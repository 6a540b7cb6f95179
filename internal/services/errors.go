// Package services defines the business logic for affiliates, quote intake,
// and quote review. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Affiliate-related errors.
var (
	// ErrAffiliateNotFound indicates that the requested affiliate does not exist.
	ErrAffiliateNotFound = errors.New("affiliate not found")

	// ErrMissingAffiliate is returned when intake is invoked without affiliate
	// context (no identity). The intake is never attempted in this case.
	ErrMissingAffiliate = errors.New("affiliate context required")

	// ErrInvalidBasePrice is returned when an affiliate base price is negative.
	ErrInvalidBasePrice = errors.New("base price must not be negative")
)

// Intake-related errors.
var (
	// ErrMissingField is returned when a required submission field is empty.
	// It is wrapped with the field name, e.g. "email: required field missing".
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidPetAge is returned when the submitted pet age cannot be
	// coerced to a non-negative number.
	ErrInvalidPetAge = errors.New("pet age must be a non-negative number")

	// ErrInvalidStatus is returned when a quote status is outside the
	// allowed set.
	ErrInvalidStatus = errors.New("invalid quote status")
)

// Review-related errors.
var (
	// ErrQuoteNotFound indicates that the requested quote does not exist.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrInvalidAmount is returned when a review amount is negative.
	ErrInvalidAmount = errors.New("amount must not be negative")
)
