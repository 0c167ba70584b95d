package fbs

import "fbs-backend/lib/timegrid"

// Vocabulary is the reference data the scraper validates against: the time
// grid plus the label sets the site's filter dropdowns actually contain.
// It is injected rather than kept as package globals so tests can run with
// reduced sets.
type Vocabulary struct {
	Grid          timegrid.Grid
	Buildings     []string
	Floors        []string
	FacilityTypes []string
	Equipment     []string
}

// DefaultVocabulary mirrors the production site's dropdown contents.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Grid: timegrid.New(),
		Buildings: []string{
			"Administration Building",
			"Campus Open Spaces - Events/Activities",
			"Concourse - Room/Lab",
			"Lee Kong Chian School of Business",
			"Li Ka Shing Library",
			"Prinsep Street Residences",
			"School of Accountancy",
			"School of Computing & Information Systems 1",
			"School of Economics/School of Computing & Information Systems 2",
			"School of Social Sciences/College of Integrative Studies",
			"SMU Connexion",
			"Yong Pung How School of Law/Kwa Geok Choo Law Library",
		},
		Floors: []string{
			"Basement 0", "Basement 1", "Basement 2",
			"Level 1", "Level 2", "Level 3", "Level 4", "Level 5",
			"Level 6", "Level 7", "Level 8", "Level 9", "Level 10",
			"Level 11", "Level 12", "Level 13", "Level 14",
		},
		FacilityTypes: []string{
			"Chatterbox",
			"Classroom",
			"Group Study Room",
			"Hostel Facilities",
			"Meeting/Conference Room",
			"MPH/Sports Hall",
			"Phone Booth",
			"Project Room",
			"Seminar Room",
			"Student Activities Area",
			"Study Booth",
		},
		Equipment: []string{
			"Classroom PC",
			"Classroom Prompter",
			"Clip-on Mic",
			"Doc Camera",
			"DVD Player",
			"Gooseneck Mic",
			"Handheld Mic",
			"Hybrid (USB connection)",
			"In-room VC System",
			"Projector",
			"Rostrum Mic",
			"Teams Room",
			"TV Panel",
			"USB Connection",
			"Wired Mic",
			"Wireless Projection",
		},
	}
}

// IsBuilding reports whether a label is a known building name. Timeslot
// extraction uses this to drop section headers the site's scheduler markup
// mixes in with room row headers.
func (v Vocabulary) IsBuilding(label string) bool {
	for _, b := range v.Buildings {
		if b == label {
			return true
		}
	}
	return false
}
