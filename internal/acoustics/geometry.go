// Package acoustics derives acoustic quantities from room and speaker
// geometry. All functions are pure: bad or missing input yields NaN (or an
// empty result) rather than an error, so callers can render "unavailable"
// without branching on failures.
package acoustics

import "math"

// SpeedOfSound is the reference speed of sound in air, m/s.
const SpeedOfSound = 343.0

// sabineConstant is the 0.161 s/m factor from Sabine's reverberation
// equation, reused in the Schroeder frequency estimate.
const sabineConstant = 0.161

// Geometry is a snapshot of the user's room and speaker setup. Dimensions
// are metres, angles degrees. It is input only; nothing in this package
// mutates it.
type Geometry struct {
	LengthM float64 `json:"length_m"`
	WidthM  float64 `json:"width_m"`
	HeightM float64 `json:"height_m"`

	SpeakerSpacingM float64 `json:"spk_spacing_m"`
	SpeakerFrontM   float64 `json:"spk_front_m"`
	ListenerFrontM  float64 `json:"listener_front_m"`
	ToeInDeg        float64 `json:"toe_deg"`
	TweeterHeightM  float64 `json:"tweeter_height_m"`

	Furnishings Furnishings `json:"furnishings"`
}

// Furnishings flags the absorbers and reflectors the user reported. They
// only influence the RT60 prediction.
type Furnishings struct {
	AreaRug   bool   `json:"opt_area_rug"`
	Curtains  bool   `json:"opt_curtains"`
	Sofa      bool   `json:"opt_sofa"`
	WallArt   bool   `json:"opt_wallart"`
	BareWalls bool   `json:"opt_barewalls"`
	Floor     string `json:"floor_material"` // "hard" or "carpet"
}

// Volume returns the room volume in m³, or NaN when a dimension is missing.
func (g Geometry) Volume() float64 {
	if !allPositive(g.LengthM, g.WidthM, g.HeightM) {
		return math.NaN()
	}
	return g.LengthM * g.WidthM * g.HeightM
}

// SurfaceArea returns the total boundary surface in m², or NaN when a
// dimension is missing.
func (g Geometry) SurfaceArea() float64 {
	if !allPositive(g.LengthM, g.WidthM, g.HeightM) {
		return math.NaN()
	}
	l, w, h := g.LengthM, g.WidthM, g.HeightM
	return 2 * (l*w + l*h + w*h)
}

// SchroederFrequency estimates the transition frequency above which the
// room's modal behaviour gives way to statistical acoustics:
//
//	f ≈ 2000 · sqrt(0.161 / V)
//
// Returns NaN for a non-positive or non-finite volume.
func SchroederFrequency(volumeM3 float64) float64 {
	if !isPositive(volumeM3) {
		return math.NaN()
	}
	return 2000 * math.Sqrt(sabineConstant/volumeM3)
}

// SBIRNullFrequency returns the first speaker-boundary interference null
// for a boundary at the given distance: the reflection arrives half a
// wavelength out of phase, so f = c / (4·d). NaN for bad input.
func SBIRNullFrequency(distanceM float64) float64 {
	if !isPositive(distanceM) {
		return math.NaN()
	}
	return SpeedOfSound / (4 * distanceM)
}

// SBIRNulls returns the first n interference nulls for a boundary distance:
// the fundamental null and its odd multiples. Empty for bad input.
func SBIRNulls(distanceM float64, n int) []float64 {
	first := SBIRNullFrequency(distanceM)
	if math.IsNaN(first) || n <= 0 {
		return nil
	}
	nulls := make([]float64, n)
	for k := 0; k < n; k++ {
		nulls[k] = first * float64(2*k+1)
	}
	return nulls
}

// SideWallReflectionDelayMs computes the arrival delay of the first
// side-wall reflection relative to the direct sound, in milliseconds.
//
// The listener sits on the room centre line at listenerFront metres from
// the front wall; each speaker sits spkSpacing/2 off-centre at spkFront
// metres. Mirroring the speaker across the near side wall at x = ±W/2
// gives the reflected path length; the delay is the path difference over
// the speed of sound.
//
// Returns NaN when any input is missing, or when the speakers would sit
// outside the room.
func SideWallReflectionDelayMs(spkSpacing, spkFront, listenerFront, roomWidth float64) float64 {
	if !allPositive(spkSpacing, spkFront, listenerFront, roomWidth) {
		return math.NaN()
	}
	if spkSpacing >= roomWidth {
		return math.NaN()
	}

	speakerX := -spkSpacing / 2
	mirrorX := -roomWidth - speakerX // reflect across x = -roomWidth/2
	dy := listenerFront - spkFront

	direct := math.Hypot(speakerX, dy)
	reflected := math.Hypot(mirrorX, dy)

	return (reflected - direct) / SpeedOfSound * 1000
}

// LowestAxialModeHz returns the frequency of the lowest axial standing
// wave, set by the longest room dimension: f = c / (2·max(L,W,H)). NaN
// when no dimension is usable.
func LowestAxialModeHz(length, width, height float64) float64 {
	longest := math.Max(length, math.Max(width, height))
	if !isPositive(longest) {
		return math.NaN()
	}
	return SpeedOfSound / (2 * longest)
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func allPositive(vs ...float64) bool {
	for _, v := range vs {
		if !isPositive(v) {
			return false
		}
	}
	return true
}
