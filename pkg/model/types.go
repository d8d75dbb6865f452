// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model holds the persisted entities of the fleet control plane and
// the enumerations they share. Entities are plain structs; all mutation goes
// through the store and domain packages.
package model

import "time"

// TenantType classifies the organization operating a tenant.
type TenantType string

const (
	TenantManufacturer    TenantType = "MANUFACTURER"
	TenantRetailer        TenantType = "RETAILER"
	TenantInstaller       TenantType = "INSTALLER"
	TenantPropertyManager TenantType = "PROPERTY_MANAGER"
)

// TenantStatus is the tenant lifecycle state.
type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
	TenantArchived  TenantStatus = "ARCHIVED"
)

// Tenant is an organizational boundary. All non-platform data is scoped by
// tenant and cross-tenant reads are prohibited.
type Tenant struct {
	ID        string       `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Type      TenantType   `db:"type" json:"type"`
	Status    TenantStatus `db:"status" json:"status"`
	Settings  Map          `db:"settings" json:"settings"`
	CreatedAt time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// UserStatus is the principal lifecycle state.
type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserInvited   UserStatus = "INVITED"
	UserSuspended UserStatus = "SUSPENDED"
)

// User is a human principal. Email is unique platform-wide.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Name         string     `db:"name" json:"name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Status       UserStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Role is the per-membership authorization level.
type Role string

const (
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
	RoleTenantAdmin   Role = "TENANT_ADMIN"
	RoleInstaller     Role = "INSTALLER"
	RoleSupportAgent  Role = "SUPPORT_AGENT"
	RoleEndUser       Role = "END_USER"
)

// Membership binds a user to a tenant with a role. At most one membership
// per (user, tenant) pair.
type Membership struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	TenantID  string    `db:"tenant_id" json:"tenantId"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// LocationSource records the provenance of a coordinate fix.
type LocationSource string

const (
	LocationMobileGPS LocationSource = "MOBILE_GPS"
	LocationEdgeGNSS  LocationSource = "EDGE_GNSS"
	LocationEdgeCell  LocationSource = "EDGE_CELL"
	LocationManual    LocationSource = "MANUAL"
)

// Site is a physical location under a tenant. LocationLock guards the
// coordinates against device-driven overwrites.
type Site struct {
	ID                string          `db:"id" json:"id"`
	TenantID          string          `db:"tenant_id" json:"tenantId"`
	Name              string          `db:"name" json:"name"`
	AddressLine       *string         `db:"address_line" json:"addressLine,omitempty"`
	City              *string         `db:"city" json:"city,omitempty"`
	PostalCode        *string         `db:"postal_code" json:"postalCode,omitempty"`
	Country           *string         `db:"country" json:"country,omitempty"`
	Lat               *float64        `db:"lat" json:"lat,omitempty"`
	Lon               *float64        `db:"lon" json:"lon,omitempty"`
	LocationSource    *LocationSource `db:"location_source" json:"locationSource,omitempty"`
	LocationAccuracyM *float64        `db:"location_accuracy_m" json:"locationAccuracyM,omitempty"`
	LocationConf      *float64        `db:"location_confidence" json:"locationConfidence,omitempty"`
	LocationUpdatedAt *time.Time      `db:"location_updated_at" json:"locationUpdatedAt,omitempty"`
	LocationUpdatedBy *string         `db:"location_updated_by" json:"locationUpdatedBy,omitempty"`
	LocationLock      bool            `db:"location_lock" json:"locationLock"`
	CreatedAt         time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updatedAt"`
}

// DeviceStatus is the device lifecycle state.
type DeviceStatus string

const (
	DeviceProvisioned DeviceStatus = "PROVISIONED"
	DeviceInstalled   DeviceStatus = "INSTALLED"
	DeviceActive      DeviceStatus = "ACTIVE"
	DeviceSuspended   DeviceStatus = "SUSPENDED"
	DeviceRetired     DeviceStatus = "RETIRED"
)

// Device is one managed heater unit. Serial numbers are unique within a
// tenant.
type Device struct {
	ID              string          `db:"id" json:"id"`
	TenantID        string          `db:"tenant_id" json:"tenantId"`
	SiteID          *string         `db:"site_id" json:"siteId,omitempty"`
	OwnerUserID     *string         `db:"owner_user_id" json:"ownerUserId,omitempty"`
	SerialNumber    string          `db:"serial_number" json:"serialNumber"`
	Model           string          `db:"model" json:"model"`
	Name            *string         `db:"name" json:"name,omitempty"`
	Notes           *string         `db:"notes" json:"notes,omitempty"`
	Tags            Map             `db:"tags" json:"tags"`
	Status          DeviceStatus    `db:"status" json:"status"`
	LastSeenAt      *time.Time      `db:"last_seen_at" json:"lastSeenAt,omitempty"`
	FirmwareVersion *string         `db:"firmware_version" json:"firmwareVersion,omitempty"`
	SimICCID        *string         `db:"sim_iccid" json:"simIccid,omitempty"`
	ReportedLat     *float64        `db:"reported_lat" json:"reportedLat,omitempty"`
	ReportedLon     *float64        `db:"reported_lon" json:"reportedLon,omitempty"`
	ReportedGeoSrc  *LocationSource `db:"reported_geo_source" json:"reportedGeoSource,omitempty"`
	ReportedGeoAccM *float64        `db:"reported_geo_accuracy_m" json:"reportedGeoAccuracyM,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`
}

// DeviceSecret pins a device identity to the deployment-wide HMAC secret.
// Only the hex digest is stored.
type DeviceSecret struct {
	ID        string    `db:"id" json:"id"`
	DeviceID  string    `db:"device_id" json:"deviceId"`
	MACDigest string    `db:"mac_digest" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Telemetry is one time-point reading for a device.
type Telemetry struct {
	ID          string          `db:"id" json:"id"`
	DeviceID    string          `db:"device_id" json:"deviceId"`
	TenantID    string          `db:"tenant_id" json:"tenantId"`
	TS          time.Time       `db:"ts" json:"ts"`
	Metrics     Map             `db:"metrics" json:"metrics"`
	GeoLat      *float64        `db:"geo_lat" json:"geoLat,omitempty"`
	GeoLon      *float64        `db:"geo_lon" json:"geoLon,omitempty"`
	GeoAccM     *float64        `db:"geo_accuracy_m" json:"geoAccuracyM,omitempty"`
	GeoSource   *LocationSource `db:"geo_source" json:"geoSource,omitempty"`
	ReceivedAt  time.Time       `db:"received_at" json:"receivedAt"`
}

// DeviceTwin is the server-side shadow of a device's last reported state.
type DeviceTwin struct {
	ID           string     `db:"id" json:"id"`
	DeviceID     string     `db:"device_id" json:"deviceId"`
	LastTS       *time.Time `db:"last_ts" json:"lastTs,omitempty"`
	DerivedState Map        `db:"derived_state" json:"derivedState"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// CommandType enumerates the instructions a device understands.
type CommandType string

const (
	CommandRemoteBoostSet CommandType = "REMOTE_BOOST_SET"
	CommandSetSchedule    CommandType = "SET_SCHEDULE"
	CommandSetConfig      CommandType = "SET_CONFIG"
)

// CommandStatus is the per-command state machine position. EXPIRED is
// reserved for a time-policy reaper and never set by the core.
type CommandStatus string

const (
	CommandQueued    CommandStatus = "QUEUED"
	CommandDelivered CommandStatus = "DELIVERED"
	CommandAcked     CommandStatus = "ACKED"
	CommandFailed    CommandStatus = "FAILED"
	CommandExpired   CommandStatus = "EXPIRED"
)

// Command is a queued instruction for one device.
type Command struct {
	ID                string        `db:"id" json:"id"`
	TenantID          string        `db:"tenant_id" json:"tenantId"`
	DeviceID          string        `db:"device_id" json:"deviceId"`
	Type              CommandType   `db:"type" json:"type"`
	Payload           Map           `db:"payload" json:"payload"`
	Status            CommandStatus `db:"status" json:"status"`
	RequestedByUserID string        `db:"requested_by_user_id" json:"requestedByUserId"`
	RequestedAt       time.Time     `db:"requested_at" json:"requestedAt"`
	DeliveredAt       *time.Time    `db:"delivered_at" json:"deliveredAt,omitempty"`
	AckAt             *time.Time    `db:"ack_at" json:"ackAt,omitempty"`
	ErrorMsg          *string       `db:"error_msg" json:"errorMsg,omitempty"`
}

// FirmwarePackage is one entry in the global firmware catalog.
type FirmwarePackage struct {
	ID           string    `db:"id" json:"id"`
	Version      string    `db:"version" json:"version"`
	URL          string    `db:"url" json:"url"`
	Checksum     string    `db:"checksum" json:"checksum"`
	ReleaseNotes *string   `db:"release_notes" json:"releaseNotes,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// OtaTargetType selects how an OTA job addresses devices.
type OtaTargetType string

const (
	OtaTargetDevice OtaTargetType = "DEVICE"
	OtaTargetGroup  OtaTargetType = "GROUP"
)

// OtaStatus is the rollout job state.
type OtaStatus string

const (
	OtaScheduled  OtaStatus = "SCHEDULED"
	OtaInProgress OtaStatus = "IN_PROGRESS"
	OtaSuccess    OtaStatus = "SUCCESS"
	OtaFailed     OtaStatus = "FAILED"
	OtaCanceled   OtaStatus = "CANCELED"
)

// OtaJob is a scheduled firmware rollout.
type OtaJob struct {
	ID          string        `db:"id" json:"id"`
	TenantID    string        `db:"tenant_id" json:"tenantId"`
	TargetType  OtaTargetType `db:"target_type" json:"targetType"`
	DeviceID    *string       `db:"device_id" json:"deviceId,omitempty"`
	GroupFilter Map           `db:"group_filter" json:"groupFilter,omitempty"`
	FirmwareID  string        `db:"firmware_id" json:"firmwareId"`
	Status      OtaStatus     `db:"status" json:"status"`
	ScheduledAt time.Time     `db:"scheduled_at" json:"scheduledAt"`
	StartedAt   *time.Time    `db:"started_at" json:"startedAt,omitempty"`
	FinishedAt  *time.Time    `db:"finished_at" json:"finishedAt,omitempty"`
	Progress    Map           `db:"progress" json:"progress,omitempty"`
	ErrorMsg    *string       `db:"error_msg" json:"errorMsg,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updatedAt"`
}

// AlertRuleType enumerates the closed set of rule predicates.
type AlertRuleType string

const (
	RuleNoTelemetry      AlertRuleType = "NO_TELEMETRY"
	RuleOverTemp         AlertRuleType = "OVER_TEMP"
	RulePossibleLeak     AlertRuleType = "POSSIBLE_LEAK"
	RuleSensorOutOfRange AlertRuleType = "SENSOR_OUT_OF_RANGE"
)

// Severity orders alert importance.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// AlertRule is a tenant-scoped evaluation rule.
type AlertRule struct {
	ID        string        `db:"id" json:"id"`
	TenantID  string        `db:"tenant_id" json:"tenantId"`
	Name      string        `db:"name" json:"name"`
	Enabled   bool          `db:"enabled" json:"enabled"`
	Type      AlertRuleType `db:"type" json:"type"`
	Params    Map           `db:"params" json:"params"`
	Severity  Severity      `db:"severity" json:"severity"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time     `db:"updated_at" json:"updatedAt"`
}

// AlertStatus is the event lifecycle state.
type AlertStatus string

const (
	AlertOpen         AlertStatus = "OPEN"
	AlertAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertClosed       AlertStatus = "CLOSED"
)

// AlertEvent is one fired alert instance. The dedupe key carries a unique
// index so a (device, rule) pair can never be concurrently open twice.
type AlertEvent struct {
	ID             string      `db:"id" json:"id"`
	TenantID       string      `db:"tenant_id" json:"tenantId"`
	DeviceID       string      `db:"device_id" json:"deviceId"`
	RuleID         string      `db:"rule_id" json:"ruleId"`
	Severity       Severity    `db:"severity" json:"severity"`
	Status         AlertStatus `db:"status" json:"status"`
	DedupeKey      *string     `db:"dedupe_key" json:"dedupeKey,omitempty"`
	Details        Map         `db:"details" json:"details"`
	OpenedAt       time.Time   `db:"opened_at" json:"openedAt"`
	AcknowledgedAt *time.Time  `db:"acknowledged_at" json:"acknowledgedAt,omitempty"`
	ClosedAt       *time.Time  `db:"closed_at" json:"closedAt,omitempty"`
}

// ChannelType selects a notification delivery adapter.
type ChannelType string

const (
	ChannelEmail   ChannelType = "EMAIL"
	ChannelSMS     ChannelType = "SMS"
	ChannelWebhook ChannelType = "WEBHOOK"
)

// NotificationChannel is a tenant-scoped delivery target.
type NotificationChannel struct {
	ID        string      `db:"id" json:"id"`
	TenantID  string      `db:"tenant_id" json:"tenantId"`
	Type      ChannelType `db:"type" json:"type"`
	Config    Map         `db:"config" json:"config"`
	Enabled   bool        `db:"enabled" json:"enabled"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// NotificationStatus is the outbound message state.
type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "QUEUED"
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// NotificationEvent is one queued outbound message.
type NotificationEvent struct {
	ID           string             `db:"id" json:"id"`
	TenantID     string             `db:"tenant_id" json:"tenantId"`
	ChannelID    string             `db:"channel_id" json:"channelId"`
	AlertEventID *string            `db:"alert_event_id" json:"alertEventId,omitempty"`
	Status       NotificationStatus `db:"status" json:"status"`
	Payload      Map                `db:"payload" json:"payload"`
	SentAt       *time.Time         `db:"sent_at" json:"sentAt,omitempty"`
	ErrorMsg     *string            `db:"error_msg" json:"errorMsg,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"createdAt"`
}

// EntitlementScope selects what an entitlement row applies to.
type EntitlementScope string

const (
	ScopeTenant EntitlementScope = "TENANT"
	ScopeDevice EntitlementScope = "DEVICE"
)

// FeatureKey enumerates gateable features.
type FeatureKey string

const (
	FeatureBasicRemoteBoost     FeatureKey = "BASIC_REMOTE_BOOST"
	FeatureSmartHomeIntegration FeatureKey = "SMART_HOME_INTEGRATION"
)

// Entitlement is a feature flag, unique on (tenant, key, device). DeviceID is
// populated iff Scope is DEVICE.
type Entitlement struct {
	ID        string           `db:"id" json:"id"`
	TenantID  string           `db:"tenant_id" json:"tenantId"`
	Scope     EntitlementScope `db:"scope" json:"scope"`
	DeviceID  *string          `db:"device_id" json:"deviceId,omitempty"`
	Key       FeatureKey       `db:"key" json:"key"`
	Enabled   bool             `db:"enabled" json:"enabled"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}

// DailyRollup is the per-device per-calendar-day aggregate.
type DailyRollup struct {
	ID              string     `db:"id" json:"id"`
	DeviceID        string     `db:"device_id" json:"deviceId"`
	TenantID        string     `db:"tenant_id" json:"tenantId"`
	DayDate         string     `db:"day_date" json:"dayDate"` // YYYY-MM-DD
	EnergyKwh       float64    `db:"energy_kwh" json:"energyKwh"`
	WaterLiters     float64    `db:"water_liters" json:"waterLiters"`
	HeaterOnMinutes int        `db:"heater_on_minutes" json:"heaterOnMinutes"`
	TankTempMin     *float64   `db:"tank_temp_min" json:"tankTempMin,omitempty"`
	TankTempMax     *float64   `db:"tank_temp_max" json:"tankTempMax,omitempty"`
	AmbientTempAvg  *float64   `db:"ambient_temp_avg" json:"ambientTempAvg,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// ActorType classifies who performed an audited action.
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorDevice ActorType = "DEVICE"
	ActorSystem ActorType = "SYSTEM"
)

// AuditLog is one append-only record of a significant state transition.
// Audit rows are never deleted.
type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	TenantID    *string   `db:"tenant_id" json:"tenantId,omitempty"`
	ActorUserID *string   `db:"actor_user_id" json:"actorUserId,omitempty"`
	ActorType   ActorType `db:"actor_type" json:"actorType"`
	Action      string    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entityType"`
	EntityID    string    `db:"entity_id" json:"entityId"`
	Metadata    Map       `db:"metadata" json:"metadata"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// WeatherData is one day of provider weather for a site, unique on
// (site, date).
type WeatherData struct {
	ID        string    `db:"id" json:"id"`
	SiteID    string    `db:"site_id" json:"siteId"`
	Date      string    `db:"date" json:"date"` // YYYY-MM-DD
	TempMinC  *float64  `db:"temp_min_c" json:"tempMinC,omitempty"`
	TempMaxC  *float64  `db:"temp_max_c" json:"tempMaxC,omitempty"`
	CloudPct  *float64  `db:"cloud_pct" json:"cloudPct,omitempty"`
	GhiWhm2   *float64  `db:"ghi_whm2" json:"ghiWhm2,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Audit action codes emitted by the core.
const (
	AuditCommandCreated            = "COMMAND_CREATED"
	AuditCommandAcked              = "COMMAND_ACKED"
	AuditCommandFailed             = "COMMAND_FAILED"
	AuditSiteLocationSetFromDevice = "SITE_LOCATION_SET_FROM_DEVICE"
	AuditDeviceGeoLargeJump        = "DEVICE_GEO_LARGE_JUMP"
	AuditDeviceCreated             = "DEVICE_CREATED"
	AuditDeviceUpdated             = "DEVICE_UPDATED"
	AuditSiteLocationUpdated       = "SITE_LOCATION_UPDATED"
	AuditAlertOpened               = "ALERT_OPENED"
	AuditAlertAcknowledged         = "ALERT_ACKNOWLEDGED"
	AuditAlertClosed               = "ALERT_CLOSED"
	AuditOtaJobScheduled           = "OTA_JOB_SCHEDULED"
	AuditOtaJobCanceled            = "OTA_JOB_CANCELED"
	AuditUserInvited               = "USER_INVITED"
	AuditRoleChanged               = "ROLE_CHANGED"
	AuditEntitlementSet            = "ENTITLEMENT_SET"
	AuditSimAction                 = "SIM_ACTION"
)
