package cli

import "codeberg.org/snonux/beamtrans/internal/decoder"

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile     string
	LexiconPath string
	BatchFile   string
	OutputDir   string
	Interactive bool
	NoBanner    bool

	// Decoding flags
	BeamWidth int
	Normalize bool
	Top       int
	Trace     bool

	// Suggestion flags
	Provider       string
	Model          string
	SourceLanguage string
	TargetLanguage string
	MaxCandidates  int
	DryRun         bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		BeamWidth:      decoder.DefaultBeamWidth,
		Provider:       "openai",
		SourceLanguage: "English",
		TargetLanguage: "Vietnamese",
		MaxCandidates:  5,
	}
}
