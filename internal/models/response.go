package models

import "time"

// ResponseModel Base response structure that can be reused
type ResponseModel struct {
	Code        int         `json:"code"`
	CurrentTime int64       `json:"currentTime"`
	Data        interface{} `json:"data,omitempty"`
	Text        string      `json:"text"`
	Version     int         `json:"version"`
}

// ResponseVersion is reported in every API envelope.
const ResponseVersion = 1

// NewResponse wraps data in the standard envelope stamped with the current time.
func NewResponse(code int, data interface{}, text string) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: time.Now().UnixMilli(),
		Data:        data,
		Text:        text,
		Version:     ResponseVersion,
	}
}

// NewOKResponse is NewResponse with code 200 and text "OK".
func NewOKResponse(data interface{}) ResponseModel {
	return NewResponse(200, data, "OK")
}
