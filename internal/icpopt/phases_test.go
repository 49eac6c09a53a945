package icpopt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/support"
	"gonum.org/v1/gonum/spatial/r2"
)

var _ = Describe("Controller phases", func() {
	var (
		params Parameters
		feet   *support.BipedSupportPolygons
		c      *Controller
	)

	BeforeEach(func() {
		params = quietParameters()
	})

	JustBeforeEach(func() {
		var err error
		feet, err = buildFeet()
		Expect(err).NotTo(HaveOccurred())
		c, err = NewController(params, feet)
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts standing with nothing planned", func() {
		Expect(c.Phase()).To(Equal(Standing))
		Expect(c.NumberOfRegisteredFootsteps()).To(BeZero())
		Expect(c.UseAngularMomentum()).To(BeFalse())
	})

	It("refuses single support without a planned step", func() {
		c.SetFinalTransferDuration(0.25)
		Expect(func() {
			c.InitializeForSingleSupport(0, footstep.Left, testOmega)
		}).To(PanicWith(MatchError(ErrEmptyPlan)))
	})

	Context("with one planned step", func() {
		JustBeforeEach(func() {
			c.AddFootstepToPlan(nominalStep, stepTiming)
			c.SetFinalTransferDuration(0.25)
		})

		It("walks standing, transfer, swing and the final transfer", func() {
			By("standing")
			c.InitializeForStanding(0)
			c.Compute(0.5, r2.Vec{}, r2.Vec{}, r2.Vec{}, testOmega)
			Expect(c.Phase()).To(Equal(Standing))
			Expect(c.NumberOfFootstepsInQP()).To(BeZero())
			Expect(c.TimeRemainingInState()).To(BeZero())

			By("shifting the weight onto the left foot")
			c.InitializeForTransfer(1, footstep.Left, testOmega)
			c.Compute(1.1, r2.Vec{}, r2.Vec{}, r2.Vec{}, testOmega)
			Expect(c.Phase()).To(Equal(Transfer))
			Expect(c.TimeInState()).To(BeNumerically("~", 0.1, 1e-12))
			Expect(c.TimeRemainingInState()).To(BeNumerically("~", 0.15, 1e-12))
			Expect(c.NumberOfFootstepsInQP()).To(BeZero())
			Expect(c.ReachabilityRegion().IsEmpty()).To(BeTrue())

			By("swinging the right foot")
			c.InitializeForSingleSupport(1.25, footstep.Left, testOmega)
			c.Compute(1.35, r2.Vec{}, r2.Vec{}, r2.Vec{}, testOmega)
			Expect(c.Phase()).To(Equal(SingleSupport))
			Expect(c.NumberOfFootstepsInQP()).To(Equal(1))
			Expect(c.TimeRemainingInState()).To(BeNumerically("~", 0.5, 1e-12))
			Expect(c.ReachabilityRegion().IsEmpty()).To(BeFalse())
			Expect(c.CoPRegion().Contains(r2.Vec{Y: 0.1}, 0)).To(BeTrue())
			Expect(c.CoPRegion().Contains(r2.Vec{Y: -0.1}, 0)).To(BeFalse())

			By("landing and transferring onto the right foot")
			Expect(feet.PlaceFoot(footstep.Footstep{Side: footstep.Right, Pose: nominalStep.Pose})).To(Succeed())
			c.ClearPlan()
			c.SetFinalTransferDuration(0.25)
			c.InitializeForTransfer(1.85, footstep.Right, testOmega)
			c.Compute(1.9, r2.Vec{}, r2.Vec{}, r2.Vec{}, testOmega)
			Expect(c.Phase()).To(Equal(Transfer))
			Expect(c.NumberOfRegisteredFootsteps()).To(BeZero())
			Expect(c.NonConvergenceCount()).To(BeZero())
		})

		When("adjustment in transfer is allowed", func() {
			BeforeEach(func() {
				params.AllowAdjustmentInTransfer = true
			})

			It("optimizes the upcoming step during the transfer", func() {
				c.InitializeForTransfer(0, footstep.Left, testOmega)
				c.Compute(0.05, r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.02}, testOmega)
				Expect(c.NumberOfFootstepsInQP()).To(Equal(1))
			})
		})

		When("step adjustment is disabled", func() {
			BeforeEach(func() {
				params.UseStepAdjustment = false
			})

			It("keeps the nominal footstep in single support", func() {
				c.InitializeForSingleSupport(0, footstep.Left, testOmega)
				c.Compute(0.3, r2.Vec{}, r2.Vec{}, r2.Vec{X: 0.1}, testOmega)
				Expect(c.NumberOfFootstepsInQP()).To(BeZero())
				Expect(c.FootstepSolution(0)).To(Equal(nominalStep.Position()))
				Expect(c.WasFootstepAdjusted()).To(BeFalse())
			})
		})
	})
})
