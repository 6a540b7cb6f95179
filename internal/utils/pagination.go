// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead. Used for lenient
// parsing of page/page_size query parameters.
//
// Example:
//
//	page := utils.AtoiDefault(c.Query("page"), 1)      // "3" -> 3
//	size := utils.AtoiDefault(c.Query("page_size"), 20) // "" -> 20, "x" -> 20
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
