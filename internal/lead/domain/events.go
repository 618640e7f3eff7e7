package domain

import "time"

// LeadSubmittedEvent 申请提交事件
type LeadSubmittedEvent struct {
	LeadID         uint        `json:"lead_id"`
	FullName       string      `json:"full_name"`
	Email          string      `json:"email"`
	City           string      `json:"city"`
	VehicleType    VehicleType `json:"vehicle_type"`
	SubmissionDate time.Time   `json:"submission_date"`
	OccurredOn     time.Time   `json:"occurred_on"`
}

// LeadStatusChangedEvent 状态变更事件
type LeadStatusChangedEvent struct {
	LeadID     uint       `json:"lead_id"`
	OldStatus  LeadStatus `json:"old_status"`
	NewStatus  LeadStatus `json:"new_status"`
	OccurredOn time.Time  `json:"occurred_on"`
}
