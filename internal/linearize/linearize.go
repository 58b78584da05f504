package linearize

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/linlab/internal/equation"
	"github.com/san-kum/linlab/internal/errs"
	"github.com/san-kum/linlab/internal/symbolic"
	"github.com/san-kum/linlab/internal/transform"
)

// Algebra is the symbolic capability the linearizer depends on.
type Algebra interface {
	ParseEquation(s string) (symbolic.Expr, symbolic.Expr, error)
	Isolate(lhs, rhs symbolic.Expr, name string) (symbolic.Expr, error)
	Separate(lhs, rhs symbolic.Expr, name string) (symbolic.Expr, symbolic.Expr, error)
}

// Strategy names how a candidate reached straight-line form.
type Strategy string

const (
	StrategyAffine       Strategy = "affine"
	StrategyLogarithmic  Strategy = "logarithmic"
	StrategySubstitution Strategy = "substitution"
)

// Candidate is one axis assignment and, when it succeeded, its linear form
// Y' = Gradient*X' + Intercept with X' and Y' the transformed axes.
type Candidate struct {
	X, Y       string
	XMeaning   string
	YMeaning   string
	XTransform transform.Label
	YTransform transform.Label
	Gradient   symbolic.Expr
	Intercept  symbolic.Expr
	Strategy   Strategy
	Err        error
	Score      float64
}

// Result is the chosen linearisation of an equation.
type Result struct {
	Equation         string          `json:"equation" yaml:"equation"`
	X                string          `json:"x" yaml:"x"`
	Y                string          `json:"y" yaml:"y"`
	XTransform       transform.Label `json:"x_transform" yaml:"x_transform"`
	YTransform       transform.Label `json:"y_transform" yaml:"y_transform"`
	Form             string          `json:"form" yaml:"form"`
	Gradient         symbolic.Expr   `json:"-" yaml:"-"`
	Intercept        symbolic.Expr   `json:"-" yaml:"-"`
	GradientExpr     string          `json:"gradient" yaml:"gradient"`
	InterceptExpr    string          `json:"intercept" yaml:"intercept"`
	GradientMeaning  string          `json:"gradient_meaning" yaml:"gradient_meaning"`
	InterceptMeaning string          `json:"intercept_meaning" yaml:"intercept_meaning"`
	Target           string          `json:"target,omitempty" yaml:"target,omitempty"`
	TargetIn         []string        `json:"target_in,omitempty" yaml:"target_in,omitempty"`
	TargetSolution   string          `json:"target_solution,omitempty" yaml:"target_solution,omitempty"`
	Strategy         Strategy        `json:"strategy" yaml:"strategy"`
	Score            float64         `json:"score" yaml:"score"`
	Candidates       []*Candidate    `json:"-" yaml:"-"`
}

// Linearizer turns two-variable physical laws into straight-line form.
type Linearizer struct {
	algebra    Algebra
	convention Convention
	rules      []Rule
	log        *logrus.Entry
}

type Option func(*Linearizer)

func WithAlgebra(a Algebra) Option { return func(l *Linearizer) { l.algebra = a } }

func WithConvention(c Convention) Option { return func(l *Linearizer) { l.convention = c } }

func WithRules(rules ...Rule) Option { return func(l *Linearizer) { l.rules = rules } }

func WithLogger(e *logrus.Entry) Option { return func(l *Linearizer) { l.log = e } }

func New(opts ...Option) *Linearizer {
	l := &Linearizer{
		algebra:    symbolic.Engine{},
		convention: DefaultConvention(),
		rules:      DefaultRules,
		log:        logrus.WithField("module", "linearize"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Linearize finds the straight-line form of eq for the measured variables a
// and b. Both axis assignments are attempted and scored; an error is
// returned only when neither succeeds. target, when set, names a variable
// the experimenter wants to extract from the gradient or intercept.
func (l *Linearizer) Linearize(eq equation.Equation, a, b, target string) (*Result, error) {
	if a == b {
		return nil, &errs.LinearizationError{X: a, Y: b, Reason: errs.ErrSameVariable}
	}
	for _, v := range []string{a, b} {
		if !eq.HasVariable(v) {
			return nil, &errs.ValidationError{Field: "variables", Msg: fmt.Sprintf("%q is not a variable of %s", v, eq.Name)}
		}
	}
	if target != "" {
		if target == a || target == b {
			return nil, &errs.ValidationError{Field: "target", Msg: "target must not be a measured variable"}
		}
		if !eq.HasVariable(target) {
			return nil, &errs.ValidationError{Field: "target", Msg: fmt.Sprintf("%q is not a variable of %s", target, eq.Name)}
		}
	}

	lhs, rhs, err := l.algebra.ParseEquation(eq.Expression)
	if err != nil {
		return nil, err
	}

	cands := []*Candidate{
		l.candidate(eq, lhs, rhs, a, b),
		l.candidate(eq, lhs, rhs, b, a),
	}
	best := pick(cands)
	if best == nil {
		return nil, l.bothFailed(a, b, cands)
	}

	res := l.result(eq, best)
	res.Candidates = cands
	if target != "" {
		l.annotateTarget(res, eq, target)
	}
	return res, nil
}

func (l *Linearizer) candidate(eq equation.Equation, lhs, rhs symbolic.Expr, x, y string) *Candidate {
	c := &Candidate{X: x, Y: y, XMeaning: eq.Variables[x], YMeaning: eq.Variables[y]}
	f, err := l.attempt(lhs, rhs, x, y)
	if err != nil {
		c.Err = &errs.LinearizationError{X: x, Y: y, Reason: errors.Cause(err), Detail: detail(err)}
		c.Score = Score(c, l.convention, l.rules)
		l.log.WithFields(logrus.Fields{"x": x, "y": y, "error": err}).Debug("orientation failed")
		return c
	}
	c.XTransform, c.YTransform = f.xLabel, f.yLabel
	c.Gradient, c.Intercept = f.slope, f.intercept
	c.Strategy = f.strategy
	c.Score = Score(c, l.convention, l.rules)
	l.log.WithFields(logrus.Fields{
		"x":        x,
		"y":        y,
		"x_label":  f.xLabel.String(),
		"y_label":  f.yLabel.String(),
		"strategy": f.strategy,
		"score":    c.Score,
	}).Debug("orientation scored")
	return c
}

// detail keeps the context wrapped around a sentinel, if any.
func detail(err error) string {
	msg, cause := err.Error(), errors.Cause(err).Error()
	if msg == cause {
		return ""
	}
	return strings.TrimSuffix(msg, ": "+cause)
}

type form struct {
	xLabel, yLabel   transform.Label
	slope, intercept symbolic.Expr
	strategy         Strategy
}

func (l *Linearizer) attempt(lhs, rhs symbolic.Expr, x, y string) (form, error) {
	inL, inR := symbolic.Contains(lhs, y), symbolic.Contains(rhs, y)
	if inL == inR {
		where := "neither side"
		if inL {
			where = "both sides"
		}
		return form{}, errors.Wrapf(errs.ErrNotIsolable, "%s appears on %s", y, where)
	}

	ySide, rest, err := l.algebra.Separate(lhs, rhs, y)
	if err != nil {
		return form{}, errors.Wrapf(errs.ErrNotIsolable, "%v", err)
	}
	if !symbolic.Contains(rest, x) {
		return form{}, errors.Wrapf(errs.ErrNotLinearizable, "%s does not remain after isolating %s", x, y)
	}

	if f, ok := linearIn(ySide, rest, x, y, false); ok {
		f.strategy = StrategyAffine
		return f, nil
	}

	if hasExponential(rest, x) {
		logY := symbolic.ExpandLog(symbolic.LnOf(ySide))
		logRest := symbolic.ExpandLog(symbolic.LnOf(rest))
		if ys, r, err := l.algebra.Separate(logY, logRest, y); err == nil {
			if f, ok := linearIn(ys, r, x, y, true); ok {
				f.strategy = StrategyLogarithmic
				return f, nil
			}
		}
	}

	if f, ok := linearIn(ySide, rest, x, y, true); ok {
		f.strategy = StrategySubstitution
		return f, nil
	}

	return form{}, errors.Wrapf(errs.ErrNotLinearizable, "%s = %s", ySide, rest)
}

// linearIn looks for rest = slope*u(x) + intercept with u a single axis
// transform of x. Unless subst is set, u must be x itself.
func linearIn(ySide, rest symbolic.Expr, x, y string, subst bool) (form, bool) {
	yLabel, ok := classify(ySide, y)
	if !ok {
		return form{}, false
	}
	variants := []symbolic.Expr{rest, symbolic.Expand(rest), symbolic.Expand(symbolic.ExpandLog(rest))}
	for _, e := range variants {
		slope, intercept, u, ok := symbolic.Affine(e, x)
		if !ok {
			continue
		}
		if n, isNum := slope.(*symbolic.Num); isNum && n.IsZero() {
			continue
		}
		xLabel, ok := classify(u, x)
		if !ok || (!subst && !xLabel.IsIdentity()) {
			continue
		}
		return form{xLabel: xLabel, yLabel: yLabel, slope: slope, intercept: intercept}, true
	}
	return form{}, false
}

// classify recognises e as a single supported transform of the symbol sym.
func classify(e symbolic.Expr, sym string) (transform.Label, bool) {
	isSym := func(e symbolic.Expr) bool {
		s, ok := e.(*symbolic.Sym)
		return ok && s.Name() == sym
	}
	switch v := e.(type) {
	case *symbolic.Sym:
		if isSym(v) {
			return transform.LabelIdentity, true
		}
	case *symbolic.Func:
		if !isSym(v.Arg()) {
			break
		}
		switch v.Name() {
		case "ln":
			return transform.LabelNaturalLog, true
		case "exp":
			return transform.LabelExponential, true
		}
	case *symbolic.Pow:
		if n, ok := v.Exponent().(*symbolic.Num); ok && isSym(v.Base()) {
			return transform.PowerOf(n.Float64()), true
		}
	}
	return transform.Label{}, false
}

// hasExponential reports whether e contains exp(...) of x or x raised to a
// symbolic power, the two shapes that taking logarithms straightens.
func hasExponential(e symbolic.Expr, x string) bool {
	switch v := e.(type) {
	case *symbolic.Func:
		if v.Name() == "exp" && symbolic.Contains(v.Arg(), x) {
			return true
		}
		return hasExponential(v.Arg(), x)
	case *symbolic.Pow:
		if _, num := v.Exponent().(*symbolic.Num); !num && symbolic.Contains(v, x) {
			return true
		}
		return hasExponential(v.Base(), x)
	case *symbolic.Add:
		for _, t := range v.Terms() {
			if hasExponential(t, x) {
				return true
			}
		}
	case *symbolic.Mul:
		for _, f := range v.Factors() {
			if hasExponential(f, x) {
				return true
			}
		}
	}
	return false
}

func (l *Linearizer) bothFailed(a, b string, cands []*Candidate) error {
	var all errs.Collection
	for _, c := range cands {
		all.Add(c.Err)
	}
	reason := errs.ErrNotLinearizable
	first := errors.Cause(cands[0].Err.(*errs.LinearizationError).Reason)
	second := errors.Cause(cands[1].Err.(*errs.LinearizationError).Reason)
	if first == second {
		reason = first
	}
	return &errs.LinearizationError{X: a, Y: b, Reason: reason, Detail: all.ErrIfAny().Error()}
}

func (l *Linearizer) result(eq equation.Equation, c *Candidate) *Result {
	res := &Result{
		Equation:      eq.Expression,
		X:             c.X,
		Y:             c.Y,
		XTransform:    c.XTransform,
		YTransform:    c.YTransform,
		Gradient:      c.Gradient,
		Intercept:     c.Intercept,
		GradientExpr:  c.Gradient.String(),
		InterceptExpr: c.Intercept.String(),
		Strategy:      c.Strategy,
		Score:         c.Score,
	}
	res.Form = Form(c.YTransform.Title(c.Y), c.XTransform.Title(c.X), c.Gradient, c.Intercept)

	res.GradientMeaning = res.GradientExpr
	res.InterceptMeaning = res.InterceptExpr
	if eq.Hints.Applies(c.X, c.Y) {
		if eq.Hints.Gradient != "" {
			res.GradientMeaning = eq.Hints.Gradient
		}
		if eq.Hints.Intercept != "" {
			res.InterceptMeaning = eq.Hints.Intercept
		}
	}
	return res
}

func (l *Linearizer) annotateTarget(res *Result, eq equation.Equation, target string) {
	res.Target = target
	m, c := "m", "c"
	if eq.HasVariable(m) || eq.HasVariable(c) {
		m, c = "gradient", "intercept"
	}

	var solutions []string
	for _, part := range []struct {
		name, sym string
		expr      symbolic.Expr
		meaning   *string
	}{
		{"gradient", m, res.Gradient, &res.GradientMeaning},
		{"intercept", c, res.Intercept, &res.InterceptMeaning},
	} {
		if !symbolic.Contains(part.expr, target) {
			continue
		}
		res.TargetIn = append(res.TargetIn, part.name)
		*part.meaning += fmt.Sprintf(" (contains %s)", target)

		sol, err := l.algebra.Isolate(symbolic.S(part.sym), part.expr, target)
		if err != nil {
			l.log.WithFields(logrus.Fields{"target": target, "from": part.name, "error": err}).Debug("target not isolable")
			continue
		}
		solutions = append(solutions, fmt.Sprintf("%s = %s", target, sol))
	}
	if len(res.TargetIn) == 0 {
		l.log.WithField("target", target).Warn("target appears in neither gradient nor intercept")
	}
	res.TargetSolution = strings.Join(solutions, "; ")
}

// Form renders y = m*x + c with the signs folded in.
func Form(y, x string, m, c symbolic.Expr) string {
	var b strings.Builder
	b.WriteString(y)
	b.WriteString(" = ")

	ms := m.String()
	switch {
	case isNumber(m, 1):
		b.WriteString(x)
	case isNumber(m, -1):
		b.WriteString("-" + x)
	default:
		if _, sum := m.(*symbolic.Add); sum {
			ms = "(" + ms + ")"
		}
		b.WriteString(ms + "·" + x)
	}

	if isNumber(c, 0) {
		return b.String()
	}
	cs := c.String()
	if _, sum := c.(*symbolic.Add); sum {
		b.WriteString(" + (" + cs + ")")
	} else if strings.HasPrefix(cs, "-") {
		b.WriteString(" - " + cs[1:])
	} else {
		b.WriteString(" + " + cs)
	}
	return b.String()
}

func isNumber(e symbolic.Expr, v float64) bool {
	n, ok := e.(*symbolic.Num)
	return ok && n.Float64() == v
}
