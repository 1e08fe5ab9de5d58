package research

// Preset is a named tuple of the pipeline's six numeric/temperature caps.
type Preset struct {
	Name                 string
	MaxSubQuestions      int
	ChunksPerSubquestion int
	MaxTotalChunks       int
	MaxFollowUpQueries   int
	SynthesisTemperature float64
	SynthesisMaxTokens   int
}

// Quick, Default, and Thorough are the three built-in preset profiles.
var (
	Quick = Preset{
		Name:                 "quick",
		MaxSubQuestions:      2,
		ChunksPerSubquestion: 4,
		MaxTotalChunks:       12,
		MaxFollowUpQueries:   1,
		SynthesisTemperature: 0.2,
		SynthesisMaxTokens:   1024,
	}
	Default = Preset{
		Name:                 "default",
		MaxSubQuestions:      5,
		ChunksPerSubquestion: 8,
		MaxTotalChunks:       40,
		MaxFollowUpQueries:   3,
		SynthesisTemperature: 0.2,
		SynthesisMaxTokens:   2048,
	}
	Thorough = Preset{
		Name:                 "thorough",
		MaxSubQuestions:      8,
		ChunksPerSubquestion: 12,
		MaxTotalChunks:       96,
		MaxFollowUpQueries:   5,
		SynthesisTemperature: 0.1,
		SynthesisMaxTokens:   4096,
	}
)

// PresetByName looks up a built-in preset by name, falling back to Default
// for an unrecognized name.
func PresetByName(name string) Preset {
	switch name {
	case "quick":
		return Quick
	case "thorough":
		return Thorough
	default:
		return Default
	}
}
