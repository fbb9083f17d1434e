package workflow

import (
	"errors"
	"fmt"

	"github.com/Kyz7/fincore/internal/access"
	"github.com/Kyz7/fincore/internal/models"
	"gorm.io/gorm"
)

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
)

var Statuses = []string{StatusNew, StatusContacted, StatusSubmitted, StatusApproved, StatusRejected}

var ErrInvalidTransition = errors.New("invalid lead status transition")

// transitions lists the allowed moves. An empty role list means any role
// with edit access on the lead's module.
var transitions = map[string]map[string][]access.Role{
	StatusNew: {
		StatusContacted: nil,
		StatusRejected:  nil,
	},
	StatusContacted: {
		StatusSubmitted: nil,
		StatusRejected:  nil,
	},
	StatusSubmitted: {
		StatusApproved: nil,
		StatusRejected: nil,
	},
	StatusRejected: {
		StatusNew: {access.SuperAdmin, access.Admin},
	},
}

// CanTransition reports whether role may move a lead from one status to
// another. Approved is terminal.
func CanTransition(from, to string, role access.Role) bool {
	roles, ok := transitions[from][to]
	if !ok {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Next lists the statuses role may move a lead to from its current status.
func Next(from string, role access.Role) []string {
	var out []string
	for _, to := range Statuses {
		if CanTransition(from, to, role) {
			out = append(out, to)
		}
	}
	return out
}

// ChangeLeadStatus moves l to status and records the change. notes, when
// set, replaces the lead notes.
func ChangeLeadStatus(db *gorm.DB, l *models.Lead, actorID uint, role access.Role, status, notes string) error {
	if !CanTransition(l.Status, status, role) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, l.Status, status)
	}

	from, prevNotes := l.Status, l.Notes
	err := db.Transaction(func(tx *gorm.DB) error {
		l.Status = status
		if notes != "" {
			l.Notes = notes
		}
		if err := tx.Model(l).Select("status", "notes").Updates(l).Error; err != nil {
			return err
		}
		return tx.Create(&models.LeadHistory{
			LeadID:     l.ID,
			FromStatus: from,
			ToStatus:   status,
			ChangedBy:  actorID,
			Comment:    notes,
		}).Error
	})
	if err != nil {
		// the transaction rolled back, so l must too
		l.Status, l.Notes = from, prevNotes
	}
	return err
}

func History(db *gorm.DB, leadID uint) ([]models.LeadHistory, error) {
	var history []models.LeadHistory
	err := db.Where("lead_id = ?", leadID).
		Order("created_at DESC, id DESC").
		Find(&history).Error
	return history, err
}

// StatusCounts counts the leads matched by q per status. Every status is
// present in the result.
func StatusCounts(q *gorm.DB) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := q.Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make(map[string]int64, len(Statuses)+1)
	for _, s := range Statuses {
		stats[s] = 0
	}
	var total int64
	for _, r := range rows {
		stats[r.Status] = r.Count
		total += r.Count
	}
	stats["total"] = total
	return stats, nil
}
