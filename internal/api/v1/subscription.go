package v1

import "time"

// QuerySchedule is the wire form of a subscription schedule. Each field is a
// wildcard ("" or "*"), a value, a comma list, or a "[a-b]" range.
type QuerySchedule struct {
	Second     string `json:"second,omitempty"`
	Minute     string `json:"minute,omitempty"`
	Hour       string `json:"hour,omitempty"`
	DayOfMonth string `json:"dayOfMonth,omitempty"`
	Month      string `json:"month,omitempty"`
	DayOfWeek  string `json:"dayOfWeek,omitempty"`
}

// SubscriptionControls selects how a standing query is driven.
// Exactly one of Schedule and Trigger must be set.
type SubscriptionControls struct {
	Schedule          *QuerySchedule `json:"schedule,omitempty"`
	Trigger           string         `json:"trigger,omitempty"`
	InitialRecordTime *time.Time     `json:"initialRecordTime,omitempty"`
	ReportIfEmpty     bool           `json:"reportIfEmpty"`
}

// SubscribeRequest is the body of a subscribe call.
type SubscribeRequest struct {
	SubscriptionID string               `json:"subscriptionID"`
	QueryName      string               `json:"queryName"`
	Params         QueryParams          `json:"params"`
	Destination    string               `json:"destination"`
	Controls       SubscriptionControls `json:"controls"`
}

// CaptureRequest is the body of a capture call.
type CaptureRequest struct {
	Events []Event `json:"events"`
}

// MasterDataCaptureRequest is the body of a master data capture call.
type MasterDataCaptureRequest struct {
	VocabularyElements []VocabularyElement `json:"vocabularyElements"`
}
