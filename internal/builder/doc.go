// SPDX-License-Identifier: MPL-2.0

// Package builder turns a build context and a recipe into a container
// image. The build is a strictly sequential pipeline: acquire the pinned
// base runtime, stage the context, install dependencies, tag the result.
// Every step either completes or aborts the whole build with a typed error
// from the taxonomy in errors.go; nothing is retried and no partial image
// is produced.
package builder
