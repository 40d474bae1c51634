// Package store provides the production persistence backends: a gorm-based
// account store and a Redis-based single-use verification token store.
package store
