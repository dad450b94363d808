// Package survey decodes whole LAS files in bounded batches and summarises
// them: per-axis statistics, return and classification histograms, and
// points that fall outside the bounds the header declares.
//
// A Report also carries an evenly strided sample of decoded points, which
// the preview package renders.
package survey
