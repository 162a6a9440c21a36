package acoustics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RoomGeometry summarises the basic geometric quantities of a room.
type RoomGeometry struct {
	Volume            float64 `json:"volume_m3"`
	SurfaceArea       float64 `json:"surface_area_m2"`
	SchroederHz       float64 `json:"schroeder_hz"`
	CriticalDistanceM float64 `json:"critical_distance_m"`
}

// Mode is a single axial resonance.
type Mode struct {
	Axis  string  `json:"axis"` // "length", "width" or "height"
	Order int     `json:"order"`
	Freq  float64 `json:"freq_hz"`
}

// Triangle describes how close the speaker/listener layout sits to an
// equilateral stereo triangle. Penalty runs 0 (ideal) to 3 (badly skewed).
type Triangle struct {
	Ideal   bool    `json:"ideal"`
	Ratio   float64 `json:"ratio"` // listener distance / speaker spacing, NaN if unknown
	Penalty int     `json:"penalty"`
}

// RT60Estimate is a Sabine-style reverberation prediction.
type RT60Estimate struct {
	Seconds    float64 `json:"rt60_s"`
	Absorption float64 `json:"absorption"`
}

// RoomGain is a rough prediction of low-frequency boundary reinforcement.
type RoomGain struct {
	OnsetHz     float64 `json:"gain_hz"`
	MagnitudeDB float64 `json:"gain_db"`
}

// RoomModel is the full derived acoustic context for a geometry snapshot.
// It feeds presentation directly; every field is display-ready.
type RoomModel struct {
	Geometry RoomGeometry `json:"geometry"`
	Modes    []Mode       `json:"modes"`
	SBIR     []float64    `json:"sbir_nulls_hz"`
	RT60     RT60Estimate `json:"rt60"`
	Triangle Triangle     `json:"triangle"`
	Gain     RoomGain     `json:"room_gain"`

	// Modal statistics below the Schroeder frequency.
	ModalCount      int     `json:"modal_count"`
	MeanModeSpacing float64 `json:"mean_mode_spacing_hz"`
	TightestModeGap float64 `json:"tightest_mode_gap_hz"`
	SideWallDelayMs float64 `json:"side_wall_delay_ms"`
	LowestAxialMode float64 `json:"lowest_axial_mode_hz"`
	FirstSBIRNull   float64 `json:"first_sbir_null_hz"`

	// Combined severity multipliers, clamped to [0.85, 1.15] and
	// {0.90, 1.00, 1.10} respectively.
	RoomFactor   float64 `json:"room_factor"`
	StereoFactor float64 `json:"stereo_factor"`
}

// ComputeRoomGeometry derives volume, surface area, Schroeder frequency
// and critical distance. All fields are NaN when dimensions are missing.
func ComputeRoomGeometry(g Geometry) RoomGeometry {
	vol := g.Volume()
	return RoomGeometry{
		Volume:            vol,
		SurfaceArea:       g.SurfaceArea(),
		SchroederHz:       SchroederFrequency(vol),
		CriticalDistanceM: criticalDistance(vol),
	}
}

// criticalDistance approximates the distance at which direct and
// reverberant energy are equal, assuming a typical domestic RT60.
func criticalDistance(volumeM3 float64) float64 {
	const rtGuess = 0.4
	if !isPositive(volumeM3) {
		return math.NaN()
	}
	return 0.15 * math.Sqrt(volumeM3/rtGuess)
}

// AxialModes returns the axial mode series for each room dimension up to
// maxOrder, sorted ascending by frequency. Dimensions that are missing or
// non-positive contribute no modes.
func AxialModes(length, width, height float64, maxOrder int) []Mode {
	if maxOrder <= 0 {
		maxOrder = 20
	}
	dims := []struct {
		axis string
		dim  float64
	}{
		{"length", length},
		{"width", width},
		{"height", height},
	}

	var modes []Mode
	for _, d := range dims {
		if !isPositive(d.dim) {
			continue
		}
		for n := 1; n <= maxOrder; n++ {
			modes = append(modes, Mode{
				Axis:  d.axis,
				Order: n,
				Freq:  SpeedOfSound / 2 * float64(n) / d.dim,
			})
		}
	}

	sort.Slice(modes, func(i, j int) bool { return modes[i].Freq < modes[j].Freq })
	return modes
}

// PredictRT60 gives a frequency-averaged Sabine estimate adjusted by the
// reported furnishings. Absorption is clamped to [0.02, 0.8].
func PredictRT60(g Geometry) RT60Estimate {
	vol := g.Volume()
	area := g.SurfaceArea()
	if math.IsNaN(vol) || math.IsNaN(area) {
		return RT60Estimate{Seconds: 0.30, Absorption: 0.2}
	}

	alpha := 0.10 // bare hard room baseline
	f := g.Furnishings
	if f.AreaRug {
		alpha += 0.08
	}
	if f.Curtains {
		alpha += 0.06
	}
	if f.Sofa {
		alpha += 0.04
	}
	if f.WallArt {
		alpha += 0.03
	}
	if f.BareWalls {
		alpha -= 0.03
	}
	if f.Floor == "carpet" {
		alpha += 0.08
	}
	alpha = math.Max(0.02, math.Min(alpha, 0.8))

	return RT60Estimate{
		Seconds:    sabineConstant * vol / (area * alpha),
		Absorption: alpha,
	}
}

// TriangleQuality scores the listening triangle. The ideal ratio of
// listener distance to speaker spacing is 1.0.
func TriangleQuality(spacingM, listenerFrontM float64) Triangle {
	if !allPositive(spacingM, listenerFrontM) {
		return Triangle{Ratio: math.NaN()}
	}

	ratio := listenerFrontM / spacingM
	var penalty int
	switch {
	case ratio >= 0.9 && ratio <= 1.1:
		penalty = 0
	case ratio >= 0.75 && ratio <= 1.25:
		penalty = 1
	case ratio >= 0.50 && ratio <= 1.50:
		penalty = 2
	default:
		penalty = 3
	}

	return Triangle{Ideal: penalty == 0, Ratio: ratio, Penalty: penalty}
}

// PredictRoomGain estimates where boundary reinforcement begins, set by the
// smallest room dimension.
func PredictRoomGain(g Geometry) RoomGain {
	if !allPositive(g.LengthM, g.WidthM, g.HeightM) {
		return RoomGain{OnsetHz: 200, MagnitudeDB: 3}
	}
	dimMin := math.Min(g.LengthM, math.Min(g.WidthM, g.HeightM))
	return RoomGain{
		OnsetHz:     SpeedOfSound / (2 * dimMin),
		MagnitudeDB: 3 + (20-dimMin)*0.1,
	}
}

// AnalyseRoom builds the full room model: geometry, modes, SBIR nulls, RT60
// prediction, triangle alignment and room gain, folded into the RoomFactor
// and StereoFactor severity multipliers.
func AnalyseRoom(g Geometry) RoomModel {
	geo := ComputeRoomGeometry(g)
	modes := AxialModes(g.LengthM, g.WidthM, g.HeightM, 20)
	nulls := SBIRNulls(g.SpeakerFrontM, 6)
	rt := PredictRT60(g)
	tri := TriangleQuality(g.SpeakerSpacingM, g.ListenerFrontM)
	gain := PredictRoomGain(g)

	m := RoomModel{
		Geometry:        geo,
		Modes:           modes,
		SBIR:            nulls,
		RT60:            rt,
		Triangle:        tri,
		Gain:            gain,
		SideWallDelayMs: SideWallReflectionDelayMs(g.SpeakerSpacingM, g.SpeakerFrontM, g.ListenerFrontM, g.WidthM),
		LowestAxialMode: LowestAxialModeHz(g.LengthM, g.WidthM, g.HeightM),
		FirstSBIRNull:   SBIRNullFrequency(g.SpeakerFrontM),
		MeanModeSpacing: math.NaN(),
		TightestModeGap: math.NaN(),
	}

	// Only modes below the Schroeder frequency drive modal severity.
	var low []float64
	if !math.IsNaN(geo.SchroederHz) {
		for _, mode := range modes {
			if mode.Freq < geo.SchroederHz {
				low = append(low, mode.Freq)
			}
		}
	}
	m.ModalCount = len(low)
	if len(low) >= 2 {
		gaps := make([]float64, len(low)-1)
		for i := 1; i < len(low); i++ {
			gaps[i-1] = low[i] - low[i-1]
		}
		m.MeanModeSpacing = stat.Mean(gaps, nil)
		m.TightestModeGap = floats.Min(gaps)
	}

	modalSeverity := math.Min(float64(len(low))/12, 1.0)
	sbirSeverity := sbirSeverityFor(g.SpeakerFrontM)
	rtSeverity := rtSeverityFor(rt.Seconds)

	combined := modalSeverity*0.5 + sbirSeverity*0.3 + rtSeverity*0.2
	m.RoomFactor = math.Max(0.85, math.Min(1.15-combined*0.30, 1.15))

	switch tri.Penalty {
	case 0:
		m.StereoFactor = 1.10
	case 1:
		m.StereoFactor = 1.00
	default:
		m.StereoFactor = 0.90
	}

	return m
}

// sbirSeverityFor maps front-wall distance to a 0..0.25 severity. Speakers
// jammed against the wall put the first null in the midbass.
func sbirSeverityFor(spkFrontM float64) float64 {
	switch {
	case !isPositive(spkFrontM):
		return 0
	case spkFrontM < 0.35:
		return 0.25
	case spkFrontM < 0.50:
		return 0.15
	case spkFrontM < 0.70:
		return 0.05
	default:
		return 0
	}
}

// rtSeverityFor measures deviation from the 0.3s domestic target.
func rtSeverityFor(rt60 float64) float64 {
	const target = 0.30
	if !isPositive(rt60) {
		return 0
	}
	return math.Min(math.Abs(rt60-target)/target, 1.0)
}
