package fs

// Classify exposes classify for tests.
var Classify = classify
