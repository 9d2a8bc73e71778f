package model

import "time"

// DescriptorLength is the dimensionality of the face descriptors produced by
// the browser-side recognition model.
const DescriptorLength = 128

// FaceDescriptor is a user's enrolled face embedding. The portal treats it as
// an opaque vector; matching is a plain distance-threshold check.
type FaceDescriptor struct {
	UserID     int       `json:"user_id"`
	Descriptor []float64 `json:"descriptor"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// RegisterFaceRequest is the payload for enrolling a face descriptor.
type RegisterFaceRequest struct {
	Descriptor []float64 `json:"descriptor" binding:"required"`
}

// VerifyFaceRequest is the payload for a live identity check.
type VerifyFaceRequest struct {
	Descriptor []float64 `json:"descriptor" binding:"required"`
}
