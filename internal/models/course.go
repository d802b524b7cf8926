package models

// CourseStatus represents the lifecycle status of a course
type CourseStatus string

const (
	CourseStatusInProgress CourseStatus = "in-progress"
	CourseStatusUpcoming   CourseStatus = "upcoming"
	CourseStatusAnnounced  CourseStatus = "announced"
)

// Valid reports whether the status is one of the known values
func (s CourseStatus) Valid() bool {
	switch s {
	case CourseStatusInProgress, CourseStatusUpcoming, CourseStatusAnnounced:
		return true
	}
	return false
}

// Course field names used for storage queries and system-managed values
const (
	CourseFieldOrder        = "order"
	CourseFieldPublished    = "published"
	CourseFieldStartDateISO = "startDateISO"
	CourseFieldVersion      = "version"
	CourseFieldCreatedAt    = "createdAt"
	CourseFieldUpdatedAt    = "updatedAt"
)

// Price holds the course price for each payment method
type Price struct {
	Transfer float64 `json:"transfer" yaml:"transfer"`
	Card     float64 `json:"card" yaml:"card"`
}

// Course represents a catalog entry
type Course struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	ShortDescription string       `json:"shortDescription"`
	Description      string       `json:"description"`
	Instructor       string       `json:"instructor"`
	Image            string       `json:"image"`
	Format           string       `json:"format"`
	TotalHours       string       `json:"totalHours"`
	Duration         string       `json:"duration"`
	StartDate        string       `json:"startDate"`
	EndDate          string       `json:"endDate"`
	StartDateISO     string       `json:"startDateISO"`
	EndDateISO       string       `json:"endDateISO"`
	Status           CourseStatus `json:"status"`
	Objectives       []string     `json:"objectives"`
	Syllabus         []string     `json:"syllabus"`
	Requirements     []string     `json:"requirements"`
	Price            Price        `json:"price"`
	Installments     int          `json:"installments"`
	Order            int          `json:"order"`
	Published        bool         `json:"published"`
	Version          int64        `json:"version"`
	CreatedAt        Timestamp    `json:"createdAt"`
	UpdatedAt        Timestamp    `json:"updatedAt"`
}

// CourseFromDocument decodes a stored course document
func CourseFromDocument(doc Document) (*Course, error) {
	var course Course
	if err := doc.Decode(&course); err != nil {
		return nil, err
	}
	course.ID = doc.ID
	return &course, nil
}

// CourseUpdate represents a partial course write. Nil fields are left untouched.
type CourseUpdate struct {
	ID               string        `json:"-" yaml:"id"`
	Title            *string       `json:"title,omitempty" yaml:"title,omitempty"`
	ShortDescription *string       `json:"shortDescription,omitempty" yaml:"shortDescription,omitempty"`
	Description      *string       `json:"description,omitempty" yaml:"description,omitempty"`
	Instructor       *string       `json:"instructor,omitempty" yaml:"instructor,omitempty"`
	Image            *string       `json:"image,omitempty" yaml:"image,omitempty"`
	Format           *string       `json:"format,omitempty" yaml:"format,omitempty"`
	TotalHours       *string       `json:"totalHours,omitempty" yaml:"totalHours,omitempty"`
	Duration         *string       `json:"duration,omitempty" yaml:"duration,omitempty"`
	StartDate        *string       `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate          *string       `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	StartDateISO     *string       `json:"startDateISO,omitempty" yaml:"startDateISO,omitempty"`
	EndDateISO       *string       `json:"endDateISO,omitempty" yaml:"endDateISO,omitempty"`
	Status           *CourseStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Objectives       *[]string     `json:"objectives,omitempty" yaml:"objectives,omitempty"`
	Syllabus         *[]string     `json:"syllabus,omitempty" yaml:"syllabus,omitempty"`
	Requirements     *[]string     `json:"requirements,omitempty" yaml:"requirements,omitempty"`
	Price            *Price        `json:"price,omitempty" yaml:"price,omitempty"`
	Installments     *int          `json:"installments,omitempty" yaml:"installments,omitempty"`
	Order            *int          `json:"order,omitempty" yaml:"order,omitempty"`
	Published        *bool         `json:"published,omitempty" yaml:"published,omitempty"`
	// ExpectedVersion, when set, makes the write fail unless the stored version matches.
	ExpectedVersion *int64 `json:"expectedVersion,omitempty" yaml:"-"`
}

// Fields returns the fields present in the update, keyed by their stored names
func (u *CourseUpdate) Fields() (map[string]any, error) {
	fields, err := toFields(u)
	if err != nil {
		return nil, err
	}
	delete(fields, "expectedVersion")
	// A list pointer to a nil slice stores an empty list rather than removing the field.
	for _, key := range []string{"objectives", "syllabus", "requirements"} {
		if v, ok := fields[key]; ok && v == nil {
			fields[key] = []any{}
		}
	}
	return fields, nil
}
