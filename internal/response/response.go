package response

import "github.com/yourname/aquaguide/internal"

// APIResponse is the envelope for every JSON body. Data is always present on success so an
// empty result reads as "data": null.
type APIResponse struct {
	Data  interface{}        `json:"data"`
	Meta  map[string]any     `json:"meta,omitempty"`
	Error *internal.AppError `json:"error,omitempty"`
}

func Success(data interface{}, meta map[string]any) APIResponse {
	return APIResponse{Data: data, Meta: meta, Error: nil}
}

// Failure carries the kind explicitly, so a 500 caused by a bug is reported as internal
// rather than storage.
func Failure(status int, kind internal.Kind, msg string) APIResponse {
	return APIResponse{Error: &internal.AppError{Code: status, Kind: kind, Message: msg}}
}

func Unauthorized(msg string) APIResponse {
	return Failure(401, internal.KindUnauthorized, msg)
}
