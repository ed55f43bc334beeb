package filter

import (
	"strings"

	"go-easyapply-automation/internal/config"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/textnorm"
)

// Classify decides whether a posting is worth applying to. It only reads
// the opportunity; the caller records the decision.
//
// Order: company blacklist, blacklist, whitelist. The first hit wins so the
// reported keyword is deterministic.
func Classify(opp *models.Opportunity, lists Lists) Decision {
	contains := lists.containsFunc()

	for _, kw := range lists.CompanyBlacklist {
		if contains(opp.Company, kw) {
			return Decision{Reason: ReasonCompanyBlacklist, Keyword: kw}
		}
	}

	for _, kw := range lists.Blacklist {
		if lists.inScope(opp, kw, contains) {
			return Decision{Reason: ReasonBlacklist, Keyword: kw}
		}
	}

	if len(lists.Whitelist) > 0 {
		switch lists.WhitelistMode {
		case config.WhitelistRequireMatch:
			matched := false
			for _, kw := range lists.Whitelist {
				if lists.inScope(opp, kw, contains) {
					matched = true
					break
				}
			}
			if !matched {
				return Decision{Reason: ReasonWhitelist}
			}
		default:
			for _, kw := range lists.Whitelist {
				if lists.inScope(opp, kw, contains) {
					return Decision{Reason: ReasonWhitelist, Keyword: kw}
				}
			}
		}
	}

	return Decision{Accepted: true}
}

// Apply classifies opp and stamps the resulting status on it.
func Apply(opp *models.Opportunity, lists Lists) Decision {
	d := Classify(opp, lists)
	if d.Accepted {
		opp.Status = models.StatusAccepted
	} else {
		opp.Status = models.StatusRejected
	}
	return d
}

// inScope checks the position, plus the description when the scope says so.
func (l Lists) inScope(opp *models.Opportunity, kw string, contains func(s, kw string) bool) bool {
	if contains(opp.Position, kw) {
		return true
	}
	if l.Scope == config.ListTitleAndDescription && opp.Description != "" {
		return contains(opp.Description, kw)
	}
	return false
}

func (l Lists) containsFunc() func(s, kw string) bool {
	if l.CaseSensitive {
		return func(s, kw string) bool {
			return kw != "" && strings.Contains(s, kw)
		}
	}
	return textnorm.ContainsFold
}
