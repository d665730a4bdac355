// Package types defines the JSON error envelope shared by the API handlers
// and middleware.
package types
