package database

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// FindOpenHostIncident returns the open incident for a host, or nil when
// there is none. Functions in this file accept a db parameter (rather than
// using the global DB) to support transaction contexts and easier testing.
func FindOpenHostIncident(db *gorm.DB, hostName string) (*Incident, error) {
	var incident Incident
	err := db.Where("incident_type = ? AND host_name = ? AND ended_at IS NULL",
		IncidentTypeHost, hostName).First(&incident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// FindOpenServiceIncident returns the open incident for a service, or nil
func FindOpenServiceIncident(db *gorm.DB, hostName, serviceDescription string) (*Incident, error) {
	var incident Incident
	err := db.Where("incident_type = ? AND host_name = ? AND service_description = ? AND ended_at IS NULL",
		IncidentTypeService, hostName, serviceDescription).First(&incident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// ActiveIncidents returns all open incidents, newest first
func ActiveIncidents(db *gorm.DB) ([]Incident, error) {
	var incidents []Incident
	err := db.Where("ended_at IS NULL").Order("started_at desc").Find(&incidents).Error
	return incidents, err
}

// CountActiveIncidents returns the number of open incidents
func CountActiveIncidents(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Incident{}).Where("ended_at IS NULL").Count(&count).Error
	return count, err
}

// RecentIncidents returns incidents that started within the lookback
// window, plus any still-open incident regardless of age
func RecentIncidents(db *gorm.DB, hours int) ([]Incident, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var incidents []Incident
	err := db.Where("started_at >= ? OR ended_at IS NULL", cutoff).
		Order("started_at desc").Find(&incidents).Error
	return incidents, err
}

// IncidentsForHost returns a host's recent host-level incidents
func IncidentsForHost(db *gorm.DB, hostName string, hours int) ([]Incident, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var incidents []Incident
	err := db.Where("incident_type = ? AND host_name = ? AND (started_at >= ? OR ended_at IS NULL)",
		IncidentTypeHost, hostName, cutoff).
		Order("started_at desc").Find(&incidents).Error
	return incidents, err
}

// IncidentsForService returns a service's recent incidents
func IncidentsForService(db *gorm.DB, hostName, serviceDescription string, hours int) ([]Incident, error) {
	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)

	var incidents []Incident
	err := db.Where("incident_type = ? AND host_name = ? AND service_description = ? AND (started_at >= ? OR ended_at IS NULL)",
		IncidentTypeService, hostName, serviceDescription, cutoff).
		Order("started_at desc").Find(&incidents).Error
	return incidents, err
}

// FindIncidentByID loads one incident with its comments
func FindIncidentByID(db *gorm.DB, id uint) (*Incident, error) {
	var incident Incident
	err := db.Preload("Comments").Preload("NagiosComments").First(&incident, id).Error
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// FindIncidentByUUID loads one incident by its public identifier, with
// comments. Returns nil without error when no such incident exists.
func FindIncidentByUUID(db *gorm.DB, uuid string) (*Incident, error) {
	var incident Incident
	err := db.Preload("Comments").Preload("NagiosComments").
		Where("uuid = ?", uuid).First(&incident).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

// SetAcknowledged flips the acknowledged flag. Written by operators via
// the API; deliberately a column update so StartedAt/EndedAt stay intact.
func SetAcknowledged(db *gorm.DB, id uint, acknowledged bool) error {
	return db.Model(&Incident{}).Where("id = ?", id).
		Update("acknowledged", acknowledged).Error
}

// SetPostIncidentReviewURL stores the PIR link for a closed-out incident
func SetPostIncidentReviewURL(db *gorm.DB, id uint, url string) error {
	return db.Model(&Incident{}).Where("id = ?", id).
		Update("post_incident_review_url", url).Error
}

// DeleteComment removes one user comment from an incident. Returns false
// when no comment matched, so callers can answer 404 instead of 204.
func DeleteComment(db *gorm.DB, incidentID, commentID uint) (bool, error) {
	result := db.Where("id = ? AND incident_id = ?", commentID, incidentID).Delete(&Comment{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CleanupOldIncidents deletes closed incidents older than the retention
// window, along with their comments. Open incidents are never deleted.
func CleanupOldIncidents(db *gorm.DB, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	var old []Incident
	if err := db.Where("ended_at IS NOT NULL AND ended_at < ?", cutoff).Find(&old).Error; err != nil {
		return 0, err
	}
	if len(old) == 0 {
		return 0, nil
	}

	ids := make([]uint, len(old))
	for i, inc := range old {
		ids[i] = inc.ID
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("incident_id IN ?", ids).Delete(&Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&NagiosComment{}).Where("incident_id IN ?", ids).
			Update("incident_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&Incident{}, ids).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(old)), nil
}

// LatestPollRecord returns the most recent poll metadata row, or nil when
// no poll has ever been recorded
func LatestPollRecord(db *gorm.DB) (*PollRecord, error) {
	var record PollRecord
	err := db.Order("polled_at desc").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// LatestSuccessfulPollRecord returns the most recent successful poll row
func LatestSuccessfulPollRecord(db *gorm.DB) (*PollRecord, error) {
	var record PollRecord
	err := db.Where("succeeded = ?", true).Order("polled_at desc").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
