// Package clinical holds the clinical utility logic behind the support
// panels: the simulated vital-signs monitor, the IV drip calculator, and the
// CPR protocol reference data.
package clinical

import (
	"fmt"
	"math/rand"
	"time"
)

// VitalSigns is a transient measurement snapshot. Values are simulated; it is
// held only in session memory and never persisted.
type VitalSigns struct {
	BPSystolic  int       `json:"bpSistolic"`
	BPDiastolic int       `json:"bpDiastolic"`
	HeartRate   int       `json:"heartRate"`
	RespRate    int       `json:"respRate"`
	Temperature float64   `json:"temp"`
	SpO2        int       `json:"spo2"`
	Timestamp   time.Time `json:"timestamp"`
}

// DefaultVitals returns the baseline simulated snapshot.
func DefaultVitals() VitalSigns {
	return VitalSigns{
		BPSystolic:  120,
		BPDiastolic: 80,
		HeartRate:   75,
		RespRate:    16,
		Temperature: 36.5,
		SpO2:        98,
		Timestamp:   time.Now().UTC(),
	}
}

// Drift produces the next simulated snapshot by nudging each measurement a
// small random amount around its baseline, keeping values in plausible ranges.
func Drift(v VitalSigns, rng *rand.Rand) VitalSigns {
	jitter := func(value, min, max, spread int) int {
		next := value + rng.Intn(2*spread+1) - spread
		if next < min {
			return min
		}
		if next > max {
			return max
		}
		return next
	}

	next := VitalSigns{
		BPSystolic:  jitter(v.BPSystolic, 100, 150, 4),
		BPDiastolic: jitter(v.BPDiastolic, 60, 95, 3),
		HeartRate:   jitter(v.HeartRate, 55, 110, 5),
		RespRate:    jitter(v.RespRate, 12, 22, 1),
		SpO2:        jitter(v.SpO2, 92, 100, 1),
		Timestamp:   time.Now().UTC(),
	}

	next.Temperature = v.Temperature + (rng.Float64()-0.5)*0.2
	if next.Temperature < 35.8 {
		next.Temperature = 35.8
	}
	if next.Temperature > 37.8 {
		next.Temperature = 37.8
	}

	return next
}

// Standard drop factors in drops per milliliter.
const (
	MacroDropFactor = 20
	MicroDropFactor = 60
)

// DripRate computes the infusion rate in drops per minute for the given
// volume, infusion time, and drop factor.
func DripRate(volumeML float64, timeHours float64, dropFactor int) (float64, error) {
	if volumeML <= 0 {
		return 0, fmt.Errorf("volume must be positive, got %v", volumeML)
	}
	if timeHours <= 0 {
		return 0, fmt.Errorf("infusion time must be positive, got %v", timeHours)
	}
	if dropFactor != MacroDropFactor && dropFactor != MicroDropFactor {
		return 0, fmt.Errorf("drop factor must be %d (macro) or %d (micro), got %d", MacroDropFactor, MicroDropFactor, dropFactor)
	}

	return volumeML * float64(dropFactor) / (timeHours * 60), nil
}

// CPRProtocol is the emergency protocol reference shown in the emergency view
// (WHO/AHA guidance).
type CPRProtocol struct {
	CompressionRateMin   int      `json:"compressionRateMin"`
	CompressionRateMax   int      `json:"compressionRateMax"`
	CompressionDepthCM   string   `json:"compressionDepthCm"`
	CompressionRatio     string   `json:"compressionRatio"`
	Steps                []string `json:"steps"`
	CycleDurationSeconds int      `json:"cycleDurationSeconds"`
}

// CPRReference returns the built-in CPR protocol reference data.
func CPRReference() CPRProtocol {
	return CPRProtocol{
		CompressionRateMin:   100,
		CompressionRateMax:   120,
		CompressionDepthCM:   "5-6",
		CompressionRatio:     "30:2",
		CycleDurationSeconds: 120,
		Steps: []string{
			"Avalie responsividade e chame ajuda (DEA).",
			"Inicie compressões torácicas imediatas (5-6cm).",
		},
	}
}
