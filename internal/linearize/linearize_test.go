package linearize_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/linlab/internal/equation"
	"github.com/san-kum/linlab/internal/errs"
	"github.com/san-kum/linlab/internal/linearize"
	"github.com/san-kum/linlab/internal/transform"
)

var (
	kinematics = equation.Equation{
		Name:       "Uniform acceleration",
		Expression: "v = u + a*t",
		Variables:  map[string]string{"v": "final velocity", "u": "initial velocity", "a": "acceleration", "t": "time"},
		Class:      equation.ClassLinear,
	}
	decay = equation.Equation{
		Name:       "Radioactive decay",
		Expression: "A = A0*exp(-λ*t)",
		Variables:  map[string]string{"A": "activity", "A0": "initial activity", "λ": "decay constant", "t": "time"},
		Class:      equation.ClassExponential,
		Hints:      &equation.Hints{X: "t", Y: "A", Gradient: "-decay constant", Intercept: "ln(initial activity)"},
	}
	pendulum = equation.Equation{
		Name:       "Simple pendulum",
		Expression: "T = 2*pi*sqrt(L/g)",
		Variables:  map[string]string{"T": "period", "L": "length", "g": "gravitational field strength"},
		Class:      equation.ClassPower,
	}
)

func custom(s string) equation.Equation {
	eq, err := equation.ParseCustom(s)
	Expect(err).NotTo(HaveOccurred())
	return eq
}

var _ = Describe("Linearizer", func() {
	var lin *linearize.Linearizer

	BeforeEach(func() {
		lin = linearize.New()
	})

	Context("with an equation that is already linear", func() {
		It("keeps both axes untransformed", func() {
			res, err := lin.Linearize(kinematics, "v", "t", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(res.X).To(Equal("t"))
			Expect(res.Y).To(Equal("v"))
			Expect(res.XTransform).To(Equal(transform.LabelIdentity))
			Expect(res.YTransform).To(Equal(transform.LabelIdentity))
			Expect(res.GradientExpr).To(Equal("a"))
			Expect(res.InterceptExpr).To(Equal("u"))
			Expect(res.Form).To(Equal("v = a·t + u"))
			Expect(res.Strategy).To(Equal(linearize.StrategyAffine))
		})

		It("solves for a target in the gradient", func() {
			res, err := lin.Linearize(kinematics, "t", "v", "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.TargetIn).To(ConsistOf("gradient"))
			Expect(res.TargetSolution).To(Equal("a = m"))

			a, ok := res.TargetValue(9.81, 2)
			Expect(ok).To(BeTrue())
			Expect(a).To(Equal(9.81))
			Expect(res.GradientMeaning).To(ContainSubstring("contains a"))
		})
	})

	Context("with exponential decay", func() {
		DescribeTable("puts time on X whatever the argument order",
			func(first, second string) {
				res, err := lin.Linearize(decay, first, second, "")
				Expect(err).NotTo(HaveOccurred())

				Expect(res.X).To(Equal("t"))
				Expect(res.Y).To(Equal("A"))
				Expect(res.XTransform).To(Equal(transform.LabelIdentity))
				Expect(res.YTransform).To(Equal(transform.LabelNaturalLog))
				Expect(res.GradientExpr).To(Equal("-λ"))
				Expect(res.InterceptExpr).To(Equal("ln(A0)"))
				Expect(res.Strategy).To(Equal(linearize.StrategyLogarithmic))
			},
			Entry("A then t", "A", "t"),
			Entry("t then A", "t", "A"),
		)

		It("prefers the canonical meanings from hints", func() {
			res, err := lin.Linearize(decay, "A", "t", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.GradientMeaning).To(Equal("-decay constant"))
			Expect(res.InterceptMeaning).To(Equal("ln(initial activity)"))
			Expect(res.Form).To(Equal("ln(A) = -λ·t + ln(A0)"))
		})

		It("falls back to symbol conventions for custom equations", func() {
			res, err := lin.Linearize(custom("A = A0*exp(-λ*t)"), "A", "t", "λ")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.X).To(Equal("t"))
			Expect(res.GradientMeaning).To(Equal("-λ (contains λ)"))
			Expect(res.InterceptMeaning).To(Equal("ln(A0)"))
			Expect(res.TargetSolution).To(Equal("λ = -m"))
		})

		It("keeps both scored candidates", func() {
			res, err := lin.Linearize(decay, "A", "t", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Candidates).To(HaveLen(2))
			for _, c := range res.Candidates {
				Expect(c.Err).NotTo(HaveOccurred())
			}
			Expect(res.Candidates[0].Score).To(BeNumerically(">", res.Candidates[1].Score))
		})

		It("follows custom rules", func() {
			avoidTimeOnX := func(c *linearize.Candidate, _ linearize.Convention) float64 {
				if c.X == "t" {
					return 100
				}
				return 0
			}
			res, err := linearize.New(linearize.WithRules(avoidTimeOnX)).Linearize(decay, "A", "t", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.X).To(Equal("A"))
			Expect(res.XTransform).To(Equal(transform.LabelNaturalLog))
			Expect(res.YTransform).To(Equal(transform.LabelIdentity))
			Expect(res.Strategy).To(Equal(linearize.StrategySubstitution))
		})
	})

	Context("with power laws", func() {
		It("substitutes the square root of length", func() {
			res, err := lin.Linearize(pendulum, "T", "L", "g")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.X).To(Equal("L"))
			Expect(res.XTransform).To(Equal(transform.LabelSquareRoot))
			Expect(res.YTransform).To(Equal(transform.LabelIdentity))
			Expect(res.GradientExpr).To(Equal("2*pi/sqrt(g)"))
			Expect(res.InterceptExpr).To(Equal("0"))
			Expect(res.Form).To(Equal("T = 2*pi/sqrt(g)·sqrt(L)"))
			Expect(res.TargetIn).To(ConsistOf("gradient"))
			Expect(res.TargetSolution).To(HavePrefix("g = "))

			g, ok := res.TargetValue(2*math.Pi/math.Sqrt(9.81), 0)
			Expect(ok).To(BeTrue())
			Expect(g).To(BeNumerically("~", 9.81, 1e-9))
		})

		It("uses a negative power for inverse square laws", func() {
			inverseSquare := equation.Equation{
				Name:       "Inverse square law",
				Expression: "I = k/d^2",
				Variables:  map[string]string{"I": "intensity", "k": "source strength", "d": "distance"},
				Class:      equation.ClassPower,
			}
			res, err := lin.Linearize(inverseSquare, "I", "d", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.X).To(Equal("d"))
			Expect(res.XTransform).To(Equal(transform.PowerOf(-2)))
			Expect(res.GradientExpr).To(Equal("k"))
		})

		It("takes logs of both axes for a symbolic exponent", func() {
			res, err := lin.Linearize(custom("y = k*x^n"), "y", "x", "n")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.X).To(Equal("x"))
			Expect(res.XTransform).To(Equal(transform.LabelNaturalLog))
			Expect(res.YTransform).To(Equal(transform.LabelNaturalLog))
			Expect(res.GradientExpr).To(Equal("n"))
			Expect(res.InterceptExpr).To(Equal("ln(k)"))
			Expect(res.TargetSolution).To(Equal("n = m"))
		})

		It("transforms both axes of the lens equation", func() {
			res, err := lin.Linearize(custom("1/v + 1/u = 1/f"), "u", "v", "f")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.XTransform).To(Equal(transform.LabelReciprocal))
			Expect(res.YTransform).To(Equal(transform.LabelReciprocal))
			Expect(res.GradientExpr).To(Equal("-1"))
			Expect(res.InterceptExpr).To(Equal("1/f"))
			Expect(res.TargetIn).To(ConsistOf("intercept"))
		})
	})

	Context("when linearization is impossible", func() {
		It("rejects the same variable twice", func() {
			_, err := lin.Linearize(kinematics, "v", "v", "")
			Expect(errors.Is(err, errs.ErrSameVariable)).To(BeTrue())
		})

		It("rejects unknown variables and bad targets", func() {
			_, err := lin.Linearize(kinematics, "v", "q", "")
			Expect(errors.Is(err, errs.ErrValidation)).To(BeTrue())

			_, err = lin.Linearize(kinematics, "v", "t", "v")
			Expect(errors.Is(err, errs.ErrValidation)).To(BeTrue())
		})

		It("reports not isolable when both variables sit on both sides", func() {
			_, err := lin.Linearize(custom("x + y = x*y + k"), "x", "y", "")
			Expect(errors.Is(err, errs.ErrNotIsolable)).To(BeTrue())

			var le *errs.LinearizationError
			Expect(errors.As(err, &le)).To(BeTrue())
			Expect(le.Detail).To(ContainSubstring("both sides"))
		})

		It("reports not linearizable for a self power", func() {
			_, err := lin.Linearize(custom("y = x^x"), "x", "y", "")
			Expect(errors.Is(err, errs.ErrNotLinearizable)).To(BeTrue())
		})

		It("returns parse errors unchanged", func() {
			bad := kinematics
			bad.Expression = "v = u + * t"
			_, err := lin.Linearize(bad, "v", "t", "")
			Expect(errors.Is(err, errs.ErrParse)).To(BeTrue())
		})
	})
})

var _ = Describe("Scoring", func() {
	conv := linearize.DefaultConvention()

	It("scores failed candidates as infinite", func() {
		c := &linearize.Candidate{X: "t", Y: "A", Err: errs.ErrNotLinearizable}
		Expect(math.IsInf(linearize.Score(c, conv, linearize.DefaultRules), 1)).To(BeTrue())
	})

	DescribeTable("applies the policy table",
		func(c linearize.Candidate, expected float64) {
			Expect(linearize.Score(&c, conv, linearize.DefaultRules)).To(Equal(expected))
		},
		Entry("no transform, neutral symbols", linearize.Candidate{X: "q", Y: "w"}, 0.0),
		Entry("Y transformed only", linearize.Candidate{X: "q", Y: "w", YTransform: transform.LabelNaturalLog}, 1.0),
		Entry("X transformed only", linearize.Candidate{X: "q", Y: "w", XTransform: transform.LabelReciprocal}, 4.0),
		Entry("both transformed", linearize.Candidate{X: "q", Y: "w", XTransform: transform.LabelReciprocal, YTransform: transform.LabelReciprocal}, 11.0),
		Entry("conventional axes", linearize.Candidate{X: "t", Y: "v"}, -4.0),
		Entry("swapped axes", linearize.Candidate{X: "v", Y: "t"}, 6.0),
		Entry("meanings beat symbols", linearize.Candidate{X: "q", XMeaning: "time", Y: "w", YMeaning: "force"}, -4.0),
	)

	It("matches meanings case-insensitively", func() {
		Expect(conv.IsIndependent("θ", "Angle of incidence")).To(BeTrue())
		Expect(conv.IsDependent("x", "Restoring force")).To(BeTrue())
		Expect(conv.IsIndependent("x", "Restoring force")).To(BeFalse())
	})

	DescribeTable("matches meanings by whole words",
		func(meaning string, independent, dependent bool) {
			Expect(conv.IsIndependent("q", meaning)).To(Equal(independent))
			Expect(conv.IsDependent("q", meaning)).To(Equal(dependent))
		},
		Entry("the last keyword decides", "time period", false, true),
		Entry("a constant is neither", "time constant", false, false),
		Entry("words after a preposition are ignored", "Period of oscillation", false, true),
		Entry("participles after the keyword", "distance fallen", true, false),
		Entry("no partial words", "timer setting", false, false),
		Entry("hyphenated words split", "half-life count", false, true),
	)

	It("merges extra conventions", func() {
		merged := conv.Merge(linearize.Convention{IndependentSymbols: []string{"q"}})
		Expect(merged.IsIndependent("q", "")).To(BeTrue())
		Expect(conv.IsIndependent("q", "")).To(BeFalse())
	})
})
