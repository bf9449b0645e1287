package documents

// DocumentType discriminates the two document shapes produced by extraction.
type DocumentType string

const (
	TypeResume         DocumentType = "resume"
	TypeJobDescription DocumentType = "job-description"
)

// Resume is the structured form of a candidate CV. All four sections are
// always present after extraction, possibly empty, and never mutated again.
type Resume struct {
	ID         string       `json:"document_id"`
	Type       DocumentType `json:"document_type"`
	Profile    string       `json:"profile"`
	Experience string       `json:"experience"`
	Education  string       `json:"education"`
	Skills     string       `json:"skills"`
}

// JobDescription is the structured form of a job posting. Same presence
// invariant as Resume: four sections, possibly empty, never absent.
type JobDescription struct {
	ID               string       `json:"document_id"`
	Type             DocumentType `json:"document_type"`
	Description      string       `json:"description"`
	Responsibilities string       `json:"responsibilities"`
	Education        string       `json:"education"`
	Skills           string       `json:"skills"`
}

// Section pair labels used across scoring and evaluation artifacts.
const (
	PairProfileDescription         = "profile_description"
	PairExperienceResponsibilities = "experience_responsibilities"
	PairEducation                  = "education"
	PairSkills                     = "skills"
)

// SectionPair binds a resume section to its job description counterpart.
// The pairing is fixed: profile is compared against the role description,
// experience against responsibilities, education and skills against their
// namesakes.
type SectionPair struct {
	Label  string
	Resume func(*Resume) string
	Job    func(*JobDescription) string
}

// SectionPairs returns the four canonical section pairs in a stable order.
func SectionPairs() []SectionPair {
	return []SectionPair{
		{
			Label:  PairProfileDescription,
			Resume: func(r *Resume) string { return r.Profile },
			Job:    func(j *JobDescription) string { return j.Description },
		},
		{
			Label:  PairExperienceResponsibilities,
			Resume: func(r *Resume) string { return r.Experience },
			Job:    func(j *JobDescription) string { return j.Responsibilities },
		},
		{
			Label:  PairEducation,
			Resume: func(r *Resume) string { return r.Education },
			Job:    func(j *JobDescription) string { return j.Education },
		},
		{
			Label:  PairSkills,
			Resume: func(r *Resume) string { return r.Skills },
			Job:    func(j *JobDescription) string { return j.Skills },
		},
	}
}
