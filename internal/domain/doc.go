// Package domain contains the core entities of the application and the
// business rules that apply to them, independent of storage or transport.
package domain
