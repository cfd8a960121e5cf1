package models

// ScreenProgress holds per data-type counts. Total counts index entries,
// so an id whose record was deleted out-of-band still contributes to
// Total (and is classified as draft).
type ScreenProgress struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
	Draft     int `json:"draft"`
}

// OverallProgress sums the screen counts.
type OverallProgress struct {
	Total     int `json:"total"`
	Submitted int `json:"submitted"`
}

// Progress is the aggregate returned for a user.
type Progress struct {
	Screens map[string]ScreenProgress `json:"screens"`
	Overall OverallProgress           `json:"overall"`
}
