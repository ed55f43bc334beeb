package filter

import (
	"go-easyapply-automation/internal/config"
)

type Scope = config.ListType

// Lists holds the keyword lists a posting is checked against.
// Empty lists impose no constraint.
type Lists struct {
	Whitelist        []string
	Blacklist        []string
	CompanyBlacklist []string
	Scope            Scope
	WhitelistMode    config.WhitelistMode
	CaseSensitive    bool
}

func FromConfig(cfg *config.Config) Lists {
	o := cfg.Opportunity
	return Lists{
		Whitelist:        o.Whitelist,
		Blacklist:        o.Blacklist,
		CompanyBlacklist: o.CompanyBlacklist,
		Scope:            o.ListType,
		WhitelistMode:    o.WhitelistMode,
		CaseSensitive:    o.CaseSensitive,
	}
}

type Reason string

const (
	ReasonNone             Reason = ""
	ReasonCompanyBlacklist Reason = "company_blacklist"
	ReasonBlacklist        Reason = "blacklist"
	ReasonWhitelist        Reason = "whitelist"
)

type Decision struct {
	Accepted bool
	Reason   Reason
	// Keyword is the list entry that decided a rejection, if any.
	Keyword string
}
