// Package patch applies self-validating text rules to files of a checked-out
// package.
//
// A Rule pairs a set of relative file paths with a pure transform. Transforms
// must prove that the text they expect is actually present: a literal rule
// fails when its substring is gone and a function-body rule fails unless the
// anchored match yields exactly five segments. Apply stages every rewrite in
// memory and only writes back once all rules succeeded, so an incompatible
// upstream release never leaves a half patched package behind.
package patch
