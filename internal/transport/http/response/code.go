package response

import "net/http"

// CodeMsgMap 状态码的默认提示语（调用方未给 message 时使用）
var CodeMsgMap = map[int]string{
	http.StatusOK:                    "Success",
	http.StatusCreated:               "Created",
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusConflict:              "Conflict",
	http.StatusRequestEntityTooLarge: "Request body too large",
	http.StatusTooManyRequests:       "Too many requests",
	http.StatusInternalServerError:   "Internal Server Error",
	http.StatusServiceUnavailable:    "Server busy",
	http.StatusGatewayTimeout:        "Request timeout",
}

func MessageFor(status int, custom string) string {
	if custom != "" {
		return custom
	}
	if m, ok := CodeMsgMap[status]; ok {
		return m
	}
	return http.StatusText(status)
}
