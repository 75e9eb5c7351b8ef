package core

// DBOrdering is one ORDER BY term. Services whitelist the fields they accept
// before handing orderings to a repository; an unknown field is dropped there,
// never interpolated.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
