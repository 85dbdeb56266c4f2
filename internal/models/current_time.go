package models

import "time"

// CurrentTimeModel Current time specific model
type CurrentTimeModel struct {
	ReadableTime string `json:"readableTime"`
	DisplayTime  string `json:"displayTime"`
	Time         int64  `json:"time"`
}

// CurrentTimeData Combined data structure for current time endpoint
type CurrentTimeData struct {
	Entry CurrentTimeModel `json:"entry"`
}

// NewCurrentTimeData creates a CurrentTimeData structure based on a provided Time
func NewCurrentTimeData(t time.Time) CurrentTimeData {
	return CurrentTimeData{
		Entry: CurrentTimeModel{
			ReadableTime: t.Format(time.RFC3339),
			DisplayTime:  DisplayTime(t),
			Time:         t.UnixMilli(),
		},
	}
}
