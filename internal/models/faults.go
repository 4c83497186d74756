package models

// Fault type ordinals. Part of the external contract (gateway firmware and
// the exported model both use them); never renumber.
const (
	FaultNormal = iota
	FaultOpenCircuit
	FaultPartialShading
	FaultShortCircuit
	FaultDustAccumulation

	FaultTypeCount = 5
)

// Canonical fault labels, indexed by ordinal.
var faultNames = [FaultTypeCount]string{
	"Normal",
	"Open_Circuit",
	"Partial_Shading",
	"Short_Circuit",
	"Dust_Accumulation",
}

const FaultNameNormal = "Normal"

// FaultName returns the canonical label for an ordinal, or "" if out of range.
func FaultName(faultType int) string {
	if faultType < 0 || faultType >= FaultTypeCount {
		return ""
	}
	return faultNames[faultType]
}

// FaultIndex returns the ordinal for a label, or -1 if unknown.
func FaultIndex(name string) int {
	for i, n := range faultNames {
		if n == name {
			return i
		}
	}
	return -1
}

// ValidFaultType reports whether the ordinal is inside the closed fault set.
func ValidFaultType(faultType int) bool {
	return faultType >= 0 && faultType < FaultTypeCount
}

// Band is an inclusive generation range for one simulated channel.
type Band struct {
	Min float64
	Max float64
}

// FaultProfile drives the simulator: per-channel draw ranges for one fault.
type FaultProfile struct {
	Name        string
	Voltage     Band
	Current     Band
	Temperature Band
	Illuminance Band
	Efficiency  Band
}

// FaultProfiles is the static, read-only generation table keyed by ordinal.
var FaultProfiles = map[int]FaultProfile{
	FaultNormal:           {Name: "Normal", Voltage: Band{17, 22}, Current: Band{4, 6}, Temperature: Band{25, 45}, Illuminance: Band{800, 1200}, Efficiency: Band{15, 22}},
	FaultOpenCircuit:      {Name: "Open_Circuit", Voltage: Band{20, 25}, Current: Band{0, 0.15}, Temperature: Band{25, 40}, Illuminance: Band{700, 1200}, Efficiency: Band{0, 2}},
	FaultPartialShading:   {Name: "Partial_Shading", Voltage: Band{8, 15}, Current: Band{1, 3.5}, Temperature: Band{30, 55}, Illuminance: Band{150, 450}, Efficiency: Band{5, 12}},
	FaultShortCircuit:     {Name: "Short_Circuit", Voltage: Band{0, 4}, Current: Band{6, 10}, Temperature: Band{55, 85}, Illuminance: Band{500, 1200}, Efficiency: Band{0, 3}},
	FaultDustAccumulation: {Name: "Dust_Accumulation", Voltage: Band{14, 19}, Current: Band{3, 5}, Temperature: Band{35, 55}, Illuminance: Band{400, 700}, Efficiency: Band{10, 16}},
}

// Recommendation is the operator guidance attached to a fault label.
type Recommendation struct {
	Message  string `json:"message"`
	Action   string `json:"action"`
	Severity string `json:"severity"` // info | warning | critical | danger
}

// FaultRecommendations maps each label to its guidance text.
var FaultRecommendations = map[string]Recommendation{
	"Normal": {
		Message:  "System operating normally",
		Action:   "No action required. Continue monitoring.",
		Severity: "info",
	},
	"Partial_Shading": {
		Message:  "Partial shading detected",
		Action:   "ACTION REQUIRED: Remove obstacles (trees, buildings, debris) blocking sunlight from the panel. Check for shadows during peak sun hours.",
		Severity: "warning",
	},
	"Dust_Accumulation": {
		Message:  "Dust accumulation detected",
		Action:   "ACTION REQUIRED: Clean the solar panel surface with water and a soft cloth. Schedule regular cleaning (weekly in dusty areas).",
		Severity: "warning",
	},
	"Open_Circuit": {
		Message:  "Open circuit fault detected",
		Action:   "URGENT: Check all cable connections. Inspect the junction box for broken wires or loose terminals. Call a technician if the issue persists.",
		Severity: "critical",
	},
	"Short_Circuit": {
		Message:  "Short circuit detected",
		Action:   "CRITICAL: Immediately disconnect the panel. Fire hazard, do not touch. Call a professional electrician and check for melted wires or damaged cells.",
		Severity: "danger",
	},
}

// RecommendationFor returns the guidance for a label, falling back to Normal.
func RecommendationFor(fault string) Recommendation {
	if rec, ok := FaultRecommendations[fault]; ok {
		return rec
	}
	return FaultRecommendations[FaultNameNormal]
}
