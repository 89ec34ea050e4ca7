package detect

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// Postprocessor filters raw candidates down to plausible pedestrians.
// Process is a pure function over its input; the three stages run in a
// fixed order, cheapest first, and every stage short-circuits on an
// empty intermediate result. A detection below the confidence threshold
// never survives, even if it would otherwise win suppression.
type Postprocessor struct {
	cfg Config
	log *logrus.Logger
}

// NewPostprocessor creates a postprocessor for the given config.
func NewPostprocessor(cfg Config, log *logrus.Logger) *Postprocessor {
	return &Postprocessor{cfg: cfg, log: log}
}

// Process applies confidence gate, geometric gate and greedy overlap
// suppression, in that order. The result is always a subset of the
// input.
func (p *Postprocessor) Process(detections []Detection) []Detection {
	if len(detections) == 0 {
		return detections
	}

	kept := p.filterByConfidence(detections)
	if len(kept) == 0 {
		return kept
	}

	kept = p.filterByGeometry(kept)
	if len(kept) == 0 {
		return kept
	}

	result := p.suppress(kept)

	p.log.WithFields(logrus.Fields{
		"raw":  len(detections),
		"kept": len(result),
	}).Debug("postprocessing complete")

	return result
}

// filterByConfidence keeps detections at or above the score floor.
func (p *Postprocessor) filterByConfidence(detections []Detection) []Detection {
	kept := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= p.cfg.ConfidenceThreshold {
			kept = append(kept, d)
		}
	}
	return kept
}

// filterByGeometry rejects boxes that cannot be a pedestrian: too large,
// zero width, or with a height/width ratio outside the plausible band.
func (p *Postprocessor) filterByGeometry(detections []Detection) []Detection {
	kept := make([]Detection, 0, len(detections))
	for _, d := range detections {
		if d.W > p.cfg.MaxSize.X || d.H > p.cfg.MaxSize.Y {
			continue
		}
		if d.W == 0 {
			continue
		}
		ratio := float64(d.H) / float64(d.W)
		if ratio < p.cfg.MinAspect || ratio > p.cfg.MaxAspect {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// suppress is greedy non-maximum suppression: repeatedly keep the
// highest-confidence remaining detection and drop everything overlapping
// it beyond the IoU threshold. The sort is stable, so equal confidences
// resolve by original list order and the result is deterministic.
func (p *Postprocessor) suppress(detections []Detection) []Detection {
	if len(detections) == 0 {
		return detections
	}

	ordered := make([]Detection, len(detections))
	copy(ordered, detections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	result := make([]Detection, 0, len(ordered))
	used := make([]bool, len(ordered))

	for i := 0; i < len(ordered); i++ {
		if used[i] {
			continue
		}
		result = append(result, ordered[i])
		used[i] = true

		for j := i + 1; j < len(ordered); j++ {
			if used[j] {
				continue
			}
			if ordered[i].IoU(ordered[j]) > p.cfg.NMSThreshold {
				used[j] = true
			}
		}
	}

	return result
}
