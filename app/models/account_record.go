package models

import (
	"time"

	"gorm.io/datatypes"
)

// RecordKind names one kind of per-account operational record.
type RecordKind string

const (
	RecordEventLog       RecordKind = "event_log"
	RecordIntegrations   RecordKind = "integrations"
	RecordEndpointConfig RecordKind = "endpoint_config"
	RecordPlanMappings   RecordKind = "plan_mappings"
)

// OperationalKinds are the record kinds wiped by a scoped data reset.
var OperationalKinds = []RecordKind{RecordEventLog, RecordIntegrations, RecordEndpointConfig, RecordPlanMappings}

// AccountRecord stores one JSON document per (account, kind).
type AccountRecord struct {
	AccountEmail string         `gorm:"primaryKey;type:varchar(200)" json:"account_email"`
	Kind         RecordKind     `gorm:"primaryKey;type:varchar(32)" json:"kind"`
	Payload      datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AccountRecord) TableName() string {
	return "account_records"
}
