package options

// ScanMode is the scan intensity. Higher modes send more requests per upload opportunity.
type ScanMode string

const (
	ScanModeFast  ScanMode = "fast"
	ScanModeSmart ScanMode = "smart"
	ScanModeFuzz  ScanMode = "fuzz"
)

var scanModeOrder = map[ScanMode]int{
	ScanModeFast:  1,
	ScanModeSmart: 2,
	ScanModeFuzz:  3,
}

// NewScanMode returns the mode named by mode, defaulting to smart.
func NewScanMode(mode string) ScanMode {
	switch mode {
	case ScanModeFast.String():
		return ScanModeFast
	case ScanModeSmart.String():
		return ScanModeSmart
	case ScanModeFuzz.String():
		return ScanModeFuzz
	default:
		return ScanModeSmart
	}
}

func (sm ScanMode) String() string {
	return string(sm)
}

func (sm ScanMode) IsHigherOrEqual(other ScanMode) bool {
	return scanModeOrder[sm] >= scanModeOrder[other]
}

func (sm ScanMode) IsLowerOrEqual(other ScanMode) bool {
	return scanModeOrder[sm] <= scanModeOrder[other]
}

// IsTop reports whether the mode is the highest intensity, which unlocks extended mutation lists.
func (sm ScanMode) IsTop() bool {
	return sm == ScanModeFuzz
}

func GetValidScanModes() []string {
	return []string{ScanModeFast.String(), ScanModeSmart.String(), ScanModeFuzz.String()}
}

func IsValidScanMode(mode string) bool {
	for _, validMode := range GetValidScanModes() {
		if mode == validMode {
			return true
		}
	}
	return false
}
