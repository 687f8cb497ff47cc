// Package effects provides the real-time processors of the persistent
// graph nodes.
//
//   - FeedbackDelay: circular-buffer echo with smoothed time and feedback.
//   - Clipper: stateless tanh-power waveshaper bounded to [-1, 1].
//
// Both allocate only at construction and do O(1) work per sample.
package effects
