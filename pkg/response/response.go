package response

// JSONResponse is the envelope used by middleware and error paths.
type JSONResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(message string, data interface{}) JSONResponse {
	return JSONResponse{
		Code:    "OK",
		Message: message,
		Data:    data,
	}
}

func Error(code, message string, data interface{}) JSONResponse {
	return JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
