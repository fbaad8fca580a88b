// Package mocks holds testify mocks for the ports interfaces, in the shape
// mockery generates with the expecter option enabled.
package mocks
