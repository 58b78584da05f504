package linearize

import "math"

// Rule contributes to the score of a successful candidate. Lower totals are
// preferred.
type Rule func(c *Candidate, conv Convention) float64

// DefaultRules encode the physics axis convention: independent quantities on
// X, and as few axis transforms as possible with Y left untransformed when
// only one axis can be.
var DefaultRules = []Rule{
	TransformCount,
	TransformedY,
	TransformedX,
	IndependentOnX,
	DependentOnY,
	DependentOnX,
	IndependentOnY,
}

func TransformCount(c *Candidate, _ Convention) float64 {
	switch {
	case !c.XTransform.IsIdentity() && !c.YTransform.IsIdentity():
		return 10
	case !c.XTransform.IsIdentity() || !c.YTransform.IsIdentity():
		return 2
	}
	return 0
}

func TransformedY(c *Candidate, _ Convention) float64 {
	if !c.YTransform.IsIdentity() {
		return -1
	}
	return 0
}

func TransformedX(c *Candidate, _ Convention) float64 {
	if !c.XTransform.IsIdentity() {
		return 2
	}
	return 0
}

func IndependentOnX(c *Candidate, conv Convention) float64 {
	if conv.IsIndependent(c.X, c.XMeaning) {
		return -2
	}
	return 0
}

func DependentOnY(c *Candidate, conv Convention) float64 {
	if conv.IsDependent(c.Y, c.YMeaning) {
		return -2
	}
	return 0
}

func DependentOnX(c *Candidate, conv Convention) float64 {
	if conv.IsDependent(c.X, c.XMeaning) {
		return 3
	}
	return 0
}

func IndependentOnY(c *Candidate, conv Convention) float64 {
	if conv.IsIndependent(c.Y, c.YMeaning) {
		return 3
	}
	return 0
}

// Score sums rules over c; failed candidates score +Inf.
func Score(c *Candidate, conv Convention, rules []Rule) float64 {
	if c.Err != nil {
		return math.Inf(1)
	}
	total := 0.0
	for _, r := range rules {
		total += r(c, conv)
	}
	return total
}

// pick returns the lowest scoring successful candidate; ties keep the
// earlier one. It returns nil when every candidate failed.
func pick(cands []*Candidate) *Candidate {
	var best *Candidate
	for _, c := range cands {
		if c.Err != nil {
			continue
		}
		if best == nil || c.Score < best.Score {
			best = c
		}
	}
	return best
}
