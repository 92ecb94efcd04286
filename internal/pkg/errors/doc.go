// Package errors provides application error types for tofscope.
//
// AppError carries a stable code, a message and the HTTP status used when
// the error reaches the API.
//
// # Error Types
//
//   - Configuration: invalid detector or physics parameters (fatal at build time)
//   - EmptyEvent: an event closed without any tracker hit
//   - UndefinedMomentum: time of flight did not yield a physical momentum
//   - NotFound: resource does not exist (404)
//   - Validation: invalid input data (400)
//   - Internal: unexpected error (500)
//
// # Usage
//
//	return apperrors.Configuration("layer count must be at least 1")
//
//	if apperrors.IsNotFound(err) {
//	    // Handle not found
//	}
//
// Errors wrap with fmt.Errorf and are still detected:
//
//	return fmt.Errorf("build detector: %w", apperrors.Configuration("unknown material G4_Xx"))
package errors
