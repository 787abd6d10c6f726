// Package ratelimit implements multi-window rate limiting per (arbitrary)
// "category". Rates are applied independently, to all categories, with
// separate buckets per category. It uses a simple but potentially poorly
// optimized strategy, involving tracking discrete events, within a sliding
// window.
//
// It is adapted from a general-purpose category rate limiter, narrowed to
// the one caller taskreactor has for it: throttling diagnostic log lines so
// a pathologically large or fast-failing graph can't flood a caller's
// logging backend with one line per event.
package ratelimit
