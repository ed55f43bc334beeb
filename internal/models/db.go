package models

import (
	"time"
)

type Site string

const (
	SiteIndeed  Site = "indeed"
	SiteMonster Site = "monster"
)

// Sites lists every site with its own opportunity table.
var Sites = []Site{SiteIndeed, SiteMonster}

func (s Site) Valid() bool {
	for _, known := range Sites {
		if s == known {
			return true
		}
	}
	return false
}

// Status replaces the old "id = -1 means rejected" convention.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusRejected Status = "REJECTED"
	StatusAccepted Status = "ACCEPTED"
)

type Opportunity struct {
	ID          int64     `json:"id"`
	Site        Site      `json:"site"`
	Link        string    `json:"link"`
	Position    string    `json:"position"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	Salary      string    `json:"salary,omitempty"`
	Description string    `json:"description,omitempty"`
	EasyApply   bool      `json:"easy_apply"`
	Applied     bool      `json:"applied"`
	Status      Status    `json:"status"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// NewOpportunity returns a pending opportunity stamped with the current time.
func NewOpportunity(site Site) *Opportunity {
	now := time.Now().UTC()
	return &Opportunity{
		Site:    site,
		Status:  StatusPending,
		Created: now,
		Updated: now,
	}
}

// String is used in log lines: "Company - Position".
func (o *Opportunity) String() string {
	return o.Company + " - " + o.Position
}
