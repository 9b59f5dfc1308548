// Package textutil provides text processing utilities for similarity scoring
// and filename sanitization.
//
// SimilarityRatio produces a normalized edit-distance score used both by the
// candidate scanner's download-path policy and by torrent reconciliation.
// Sanitization helpers make category names safe as directory names.
package textutil
