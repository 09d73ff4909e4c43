package tgCallback

// Callback buttons unique ids
const (
	Home    string = "home"
	About   string = "about"
	Refresh string = "refresh"
	Export  string = "export"
)
