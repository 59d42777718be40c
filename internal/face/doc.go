// Package face holds the FaceMatcher: face presence detection in a still frame
// and a similarity score between a live frame and a stored reference.
//
// Similarity is normalized cross-correlation of grayscale, down-scaled images.
// It is a coarse heuristic, not biometric recognition: a printed photo of the
// enrolled person will match. The score threshold is policy and lives in the
// biometric gate.
//
// Detection is pluggable. PigoDetector is pure Go and always available.
// Building with the "opencv" tag adds CascadeDetector and a webcam
// CameraSource backed by gocv; without it CameraSource reports
// common.ErrSourceUnavailable.
package face
