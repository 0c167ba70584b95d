package timegrid

// CapacityLabel is one of the seven occupancy buckets the booking system's
// room-capacity filter accepts.
type CapacityLabel string

const (
	LessThan5Pax   CapacityLabel = "LessThan5Pax"
	From6To10Pax   CapacityLabel = "From6To10Pax"
	From11To15Pax  CapacityLabel = "From11To15Pax"
	From16To20Pax  CapacityLabel = "From16To20Pax"
	From21To50Pax  CapacityLabel = "From21To50Pax"
	From51To100Pax CapacityLabel = "From51To100Pax"
	MoreThan100Pax CapacityLabel = "MoreThan100Pax"
)

// capacityTable maps inclusive upper bounds to labels, checked in order.
// Anything above the last bound falls through to MoreThan100Pax.
var capacityTable = []struct {
	upper int
	label CapacityLabel
}{
	{4, LessThan5Pax},
	{10, From6To10Pax},
	{15, From11To15Pax},
	{20, From16To20Pax},
	{50, From21To50Pax},
	{100, From51To100Pax},
}

// CapacityBucket classifies an occupancy count into the site's fixed
// capacity filter vocabulary. Total over all non-negative integers.
func CapacityBucket(n int) CapacityLabel {
	for _, row := range capacityTable {
		if n <= row.upper {
			return row.label
		}
	}
	return MoreThan100Pax
}
