package domain

// RegistrationRecord pairs a primary path with its secondary path.
type RegistrationRecord struct {
	PrimaryPath   string
	SecondaryPath string
}
