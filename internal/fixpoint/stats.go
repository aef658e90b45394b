package fixpoint

import "fmt"

// Stats summarises one scheduler run.
type Stats struct {
	Enums        int // enum definitions seen
	EnumsParsed  int
	EnumsDropped int

	Aggregates           int // struct/union definitions seen
	AggregatesParsed     int
	AggregatesUnresolved int

	Duplicates int // definitions ignored because the name was taken
	Inlined    int // anonymous members flattened into their parent

	Passes       int
	PassProgress []int // successes per aggregate pass
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d enums, %d/%d aggregates in %d passes, %d unresolved, %d duplicates",
		s.EnumsParsed, s.Enums, s.AggregatesParsed, s.Aggregates, s.Passes, s.AggregatesUnresolved, s.Duplicates)
}
