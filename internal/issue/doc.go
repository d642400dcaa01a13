// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error handling: the ActionableError
// type carries the failed operation, the resource involved, and fix
// suggestions; the issue catalog holds longer markdown help pages rendered
// in the terminal for well-known failure classes.
package issue
