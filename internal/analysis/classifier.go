package analysis

// classifier assigns a sync point type and intensity to a time instant
// from the global feature history. Features must be fully extracted before
// the first classify call: band ratios are normalized against the
// track-wide maxima.
type classifier struct {
	feats *featureSet
}

func newClassifier(feats *featureSet) *classifier {
	return &classifier{feats: feats}
}

// classify returns the type and intensity at t. energyIntensity is the
// caller's energy-derived intensity, used when spectral features are
// absent for the nearest frame; pass a negative value to have it derived
// from the frame energy instead.
func (c *classifier) classify(t, energyIntensity float64) (SyncPointType, float64) {
	i := c.feats.frameAt(t)
	if i < 0 {
		return TypeHit, 0.5
	}
	frame := c.feats.frames[i]

	if energyIntensity < 0 {
		energyIntensity = 0.5
		if c.feats.maxEnergy > 0 {
			energyIntensity = clamp01(frame.Energy / c.feats.maxEnergy)
		}
	}

	if !frame.HasSpectral || c.feats.maxLow <= 0 || c.feats.maxHigh <= 0 {
		return energyOnlyType(energyIntensity), energyIntensity
	}

	lowRatio := frame.LowBand / c.feats.maxLow
	highRatio := frame.HighBand / c.feats.maxHigh

	switch {
	case lowRatio > 0.7 && lowRatio > 1.5*highRatio:
		typ := TypeBass
		if lowRatio > 0.85 {
			typ = TypeDrop
		}
		return typ, clamp01(lowRatio + 0.2)

	case highRatio > 0.6 && highRatio > 1.2*lowRatio:
		return TypeSnare, clamp01(highRatio + 0.1)

	case lowRatio > 0.5 && highRatio > 0.4:
		return TypeHit, clamp01((lowRatio+highRatio)/2 + 0.2)

	default:
		return TypeHit, 0.5
	}
}

// energyOnlyType is the reduced rule used when no spectral bands exist.
func energyOnlyType(intensity float64) SyncPointType {
	switch {
	case intensity > 0.8:
		return TypeDrop
	case intensity > 0.5:
		return TypeBass
	default:
		return TypeHit
	}
}
