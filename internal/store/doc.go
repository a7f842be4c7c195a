// Package store defines the persistence interfaces for the application's
// entities along with the sentinel errors and transaction helpers shared by
// all implementations. Concrete stores live under internal/platform.
package store
