package taxonomy

import "github.com/equinoxe-ovh/regafind/internal/model"

// The matcher tables translate CB passporting codes into their domestic ACPR
// equivalents. Translation only fans out (one CB code to one or more ACPR
// codes), never the reverse.

// CBToACPRInstruments maps a CB instrument code to the ACPR instrument codes
// it covers.
var CBToACPRInstruments = map[int][]int{
	1:  {1, 2},
	2:  {5},
	3:  {3},
	4:  {4},
	5:  {2, 9},
	6:  {4},
	7:  {4},
	8:  {4},
	9:  {5},
	10: {4},
}

// CBToACPRServices maps a CB service code to the ACPR service codes it
// covers. CB codes 9-15 are absent: code 9 translates to an activity instead
// (see CBToACPRActivities), the rest have no domestic equivalent.
var CBToACPRServices = map[int][]int{
	1: {1},
	2: {2},
	3: {3},
	4: {4},
	5: {5},
	6: {6, 7},
	7: {8},
	8: {9},
}

// CBToACPRActivities maps the CB service codes that correspond to a domestic
// authorized activity rather than an investment service. Only custody
// (CB service 9) has such an equivalent: ACPR activity 3, account keeping
// and custody.
var CBToACPRActivities = map[int][]model.ActivityCode{
	9: {3},
}
