package sim

import "fmt"

// TravelTimeMatrix is a symmetric node×node travel-time table. Nodes are 1..Nodes().
// It is only mutated by Reroute events.
type TravelTimeMatrix struct {
	times [][]int64 // 0-based internally
}

// NewTravelTimeMatrix validates rows (square, non-negative, symmetric) and copies them.
func NewTravelTimeMatrix(rows [][]int64) (*TravelTimeMatrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("travel-time matrix must not be empty")
	}
	times := make([][]int64, n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("travel-time matrix row %d has %d columns, want %d", i+1, len(row), n)
		}
		times[i] = append([]int64(nil), row...)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if times[i][j] < 0 {
				return nil, fmt.Errorf("travel time (%d,%d) must be non-negative, got %d", i+1, j+1, times[i][j])
			}
			if times[i][j] != times[j][i] {
				return nil, fmt.Errorf("travel-time matrix not symmetric at (%d,%d): %d != %d",
					i+1, j+1, times[i][j], times[j][i])
			}
		}
	}
	return &TravelTimeMatrix{times: times}, nil
}

// Nodes returns the number of nodes.
func (m *TravelTimeMatrix) Nodes() int {
	return len(m.times)
}

// HasNode reports whether n is a valid node.
func (m *TravelTimeMatrix) HasNode(n NodeID) bool {
	return n >= 1 && int(n) <= len(m.times)
}

// Time returns the travel time between a and b. Both must be valid nodes.
func (m *TravelTimeMatrix) Time(a, b NodeID) int64 {
	return m.times[a-1][b-1]
}

// Set updates the unordered pair (a,b) symmetrically.
func (m *TravelTimeMatrix) Set(a, b NodeID, t int64) {
	m.times[a-1][b-1] = t
	m.times[b-1][a-1] = t
}

// Rows returns a copy of the matrix.
func (m *TravelTimeMatrix) Rows() [][]int64 {
	rows := make([][]int64, len(m.times))
	for i, row := range m.times {
		rows[i] = append([]int64(nil), row...)
	}
	return rows
}

// TravelTicks converts a matrix distance into whole ticks for a vehicle of the given speed:
// ceil(distance/speed), never less than 1.
func TravelTicks(distance int64, speed int) int64 {
	s := int64(speed)
	ticks := distance / s
	if distance%s != 0 {
		ticks++
	}
	if ticks < 1 {
		return 1
	}
	return ticks
}
