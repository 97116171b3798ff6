// Package util provides small helpers shared by ssecast packages.
package util
