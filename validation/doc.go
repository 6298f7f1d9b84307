// Package validation provides input validation for request DTOs and
// configuration structs.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// the usual choice for config types, where ranges live as tags next to
// the fields they bound; the fluent Validator suits request bodies with
// cross-field rules that tags cannot express.
//
// # Struct Tag Validation
//
//	type Params struct {
//	    MaxIters int     `json:"max_iters" validate:"min=1"`
//	    LoopProb float64 `json:"loop_prob" validate:"gt=0,lt=1"`
//	}
//	err := validation.Validate(params)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Required("recording_id", req.RecordingID)
//	v.Min("workers", req.Workers, 1)
//	if appErr := v.Validate(); appErr != nil {
//	    return appErr
//	}
//
// Both paths produce an errors.AppError with an INVALID_INPUT code and a
// per-field breakdown in Details.
package validation
