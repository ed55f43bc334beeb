package indeed

import "go-easyapply-automation/internal/apply"

const DefaultBaseURL = "https://www.indeed.com"

// Plain CSS only: the same selectors run against playwright locators and
// goquery documents.
const (
	selLoginEmail    = "#login-email-input"
	selLoginPassword = "#login-password-input"

	selPopupClose = `button[class*="popover-x-button-close"]`
	selCard       = `a[class*="result"]`
	selCardTitle  = "h2 > span"
	selCompany    = "pre > span.companyName"
	selLocation   = "div.companyLocation"
	selSalary     = "span.salary-snippet"
	selSnippet    = "div.job-snippet > ul > li"
	selApplied    = `#applied-snippet, div[class*="applied-snippet"]`
	selNextPage   = `a[aria-label="Next"]`

	selDescription  = "#jobDescriptionText"
	selApplyButton  = "button#indeedApplyButton"
	selAppliedBug   = `h1[class*="ia-HasApplied-bodyTop--text"]`
	selHeading      = `h1[class*="ia-BasePage-heading"]`
	selContinue     = `button[class*="ia-continueButton"]`
	selResumeCard   = `div[class*="resume-display-container"]`
	selCoverUpload  = "#additionalDocuments"
	selWriteLetter  = `div[id*="write-cover-letter-selection-card"]`
	selQuestion     = `div[class*="ia-Questions-item"]`
	selQuestionFor  = "div > label"
	selQuestionText = "div > label > span"
	selFieldset     = "div > fieldset"
	selOptionText   = "span:nth-of-type(2)"
)

const (
	textEasilyApply = "Easily apply"
	textEasyResume  = "Apply with your Indeed Resume"
)

// Headings are the wizard page titles, in match order.
var Headings = []apply.Pattern{
	{Step: apply.StepResumeUpload, Substring: "Add a resume"},
	{Step: apply.StepQuestions, Substring: "Questions from"},
	{Step: apply.StepPastExperience, Substring: "past job"},
	{Step: apply.StepQualifications, Substring: "qualifications"},
	{Step: apply.StepCoverLetter, Substring: "supporting documents"},
	{Step: apply.StepReview, Substring: "Please review your application"},
}
