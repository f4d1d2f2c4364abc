package domain

type BackupFrequency string

const (
	BackupOff    BackupFrequency = "off"
	BackupHourly BackupFrequency = "hourly"
	BackupDaily  BackupFrequency = "daily"
	BackupWeekly BackupFrequency = "weekly"
)

// CronSpec returns the cron descriptor for the frequency, or "" when backups are off.
func (f BackupFrequency) CronSpec() string {
	switch f {
	case BackupHourly:
		return "@hourly"
	case BackupDaily:
		return "@daily"
	case BackupWeekly:
		return "@weekly"
	default:
		return ""
	}
}

// OpsSettings is the operator-editable configuration kept in the settings file.
type OpsSettings struct {
	RetentionDays   int             `json:"retentionDays" yaml:"retention_days"`
	BackupFrequency BackupFrequency `json:"backupFrequency" yaml:"backup_frequency"`
}

func DefaultOpsSettings() OpsSettings {
	return OpsSettings{
		RetentionDays:   30,
		BackupFrequency: BackupDaily,
	}
}

func (s OpsSettings) Validate() error {
	if s.RetentionDays < 1 || s.RetentionDays > 3650 {
		return ErrInvalidField("retentionDays", "must be between 1 and 3650")
	}
	switch s.BackupFrequency {
	case BackupOff, BackupHourly, BackupDaily, BackupWeekly:
	default:
		return ErrInvalidField("backupFrequency", "must be one of off, hourly, daily, weekly")
	}
	return nil
}
