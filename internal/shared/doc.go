// Package shared provides common utilities and test helpers used
// across the codebase. It serves as a central location for shared
// functionality that doesn't belong to any specific domain or
// architectural layer.
//
// # Structure
//
// - testutil: Testing utilities including log capture and assertions
//
// # Usage Guidelines
//
// This package should only contain:
//
// 1. Test utilities used by multiple packages
// 2. Generic helper functions with no domain-specific logic
//
// It should NOT contain business logic, domain-specific code, or
// circular dependencies with other internal packages.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    // run code under test with logger ...
//	    testutil.AssertLogContains(t, handler, slog.LevelWarn, "rejected")
//	}
package shared
