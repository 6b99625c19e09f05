package model

import "encoding/json"

// stealthyFloor is the strength a stealthy vessel demands at most.
const stealthyFloor = 3

// Scanner keeps the result of the last sweep.
type Scanner struct {
	previous string
}

// NewScanner returns a scanner with no history.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Range is how far a sweep reaches for the given scanner power.
func Range(power int) int {
	return power * 3 / 2
}

// Previous returns the last sweep report.
func (s *Scanner) Previous() string {
	return s.previous
}

// Remember stores a sweep report.
func (s *Scanner) Remember(report string) {
	s.previous = report
}

type scannerJSON struct {
	Previous string `json:"prev_scan"`
}

func (s *Scanner) MarshalJSON() ([]byte, error) {
	return json.Marshal(scannerJSON{Previous: s.previous})
}

func (s *Scanner) UnmarshalJSON(data []byte) error {
	var raw scannerJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.previous = raw.Previous
	return nil
}
