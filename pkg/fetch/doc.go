// Package fetch downloads remote build assets and identifies them by content.
//
// Downloads are buffered in memory, retried immediately a bounded number of
// times and only persisted once a non-empty body arrived. File types are
// inferred from magic numbers so that a mislabelled URL cannot give an icon
// the wrong extension.
package fetch
