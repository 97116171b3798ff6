// Package testutil holds test helpers shared across packages: starting a
// component for the duration of a test and polling for an asynchronous
// condition.
package testutil
