package core

// SqlQuery is a named summary query run against the Findings table.
type SqlQuery struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title,omitempty"`
	Query string `yaml:"query"`
}

// SheetName is the title, or the name when there is none, cut to the 31
// characters (not bytes) a spreadsheet tab can hold.
func (q SqlQuery) SheetName() string {
	name := q.Title
	if name == "" {
		name = q.Name
	}
	if runes := []rune(name); len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}

type SqlQueries struct {
	Queries []SqlQuery `yaml:"queries"`
}
