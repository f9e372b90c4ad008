// Package integration runs the API end to end against postgres and redis containers.
// Tests are behind the integration_test build tag.
package integration
