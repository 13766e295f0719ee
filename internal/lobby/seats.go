package lobby

import "sort"

// MaxSeats is the number of seats at a table.
const MaxSeats = 4

// AssignSeats computes the seat of every registered identity.
//
// registered lists the externalIds of the registered players in join order,
// previous is the assignment returned by the last call. The result keeps
// survivors in their previous relative order packed into 0..n-1 (a departure
// from seat i shifts everyone above i down by one) and appends newcomers in
// join order. Duplicate ids share one seat.
func AssignSeats(registered []string, previous map[string]int) map[string]int {
	present := make(map[string]bool, len(registered))
	for _, id := range registered {
		present[id] = true
	}

	survivors := make([]string, 0, len(previous))
	for id := range previous {
		if present[id] {
			survivors = append(survivors, id)
		}
	}
	sort.Slice(survivors, func(i, j int) bool {
		return previous[survivors[i]] < previous[survivors[j]]
	})

	seats := make(map[string]int, len(present))
	for i, id := range survivors {
		seats[id] = i
	}
	for _, id := range registered {
		if _, ok := seats[id]; !ok {
			seats[id] = len(seats)
		}
	}
	return seats
}
