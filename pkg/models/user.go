package models

// User is a MovieLens user record. Occupation is a free-form category
// string from an open vocabulary observed at runtime, not a fixed enum.
type User struct {
	ID         int
	Age        int
	Gender     string
	Occupation string
	ZipCode    string
}

// Gender codes observed in the MovieLens dataset.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)
