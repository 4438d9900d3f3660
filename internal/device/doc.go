// Package device provides the shared domain types for the caremini band.
//
// This package contains type definitions and the error taxonomy only. All
// other internal packages import device; device imports nothing internal.
// This keeps it the foundational layer with no circular dependencies.
package device
