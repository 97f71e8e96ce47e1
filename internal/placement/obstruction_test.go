package placement

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/symmetrix-compute/sheaf-placement-engine/internal/registry"
)

func registerWithCPU(reg *registry.Registry, id, capacity, allocated uint64) {
	var capVec, allocVec registry.Vector
	capVec[registry.KindCPU] = capacity
	allocVec[registry.KindCPU] = allocated
	Expect(reg.RegisterUnit(id, capVec)).To(Succeed())
	if allocated > 0 {
		Expect(reg.Allocate(id, allocVec)).To(Succeed())
	}
}

var _ = Describe("ObstructionSelector", func() {
	var (
		reg      *registry.Registry
		selector Selector
	)

	BeforeEach(func() {
		reg = registry.New(0, nil)
		var err error
		selector, err = NewSelector(ObstructionStrategy, reg)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("scoring", func() {
		It("should penalize units past 80% utilization", func() {
			registerWithCPU(reg, 1, 1000, 900)
			score, err := selector.(*ObstructionSelector).Score(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("==", 100))
		})

		It("should give headroom units a zero score", func() {
			registerWithCPU(reg, 1, 1000, 800)
			score, err := selector.(*ObstructionSelector).Score(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeZero())
		})

		It("should sum obstruction across resource kinds", func() {
			capVec := registry.Vector{registry.KindCPU: 100, registry.KindMemory: 100}
			allocVec := registry.Vector{registry.KindCPU: 90, registry.KindMemory: 95}
			Expect(reg.RegisterUnit(1, capVec)).To(Succeed())
			Expect(reg.Allocate(1, allocVec)).To(Succeed())

			score, err := selector.(*ObstructionSelector).Score(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(score).To(BeNumerically("==", 25))
		})
	})

	Context("selection", func() {
		It("should pick the unit with strictly smaller score", func() {
			registerWithCPU(reg, 1, 1000, 900)
			registerWithCPU(reg, 2, 1000, 0)

			got, err := selector.SelectUnit([]uint64{1, 2}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(uint64(2)))
		})

		It("should be deterministic regardless of candidate order", func() {
			registerWithCPU(reg, 1, 1000, 900)
			registerWithCPU(reg, 2, 1000, 0)

			first, err := selector.SelectUnit([]uint64{1, 2}, 1)
			Expect(err).NotTo(HaveOccurred())
			second, err := selector.SelectUnit([]uint64{2, 1}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(Equal(second))
		})

		It("should prefer the previous unit among ties", func() {
			registerWithCPU(reg, 1, 1000, 0)
			registerWithCPU(reg, 2, 1000, 0)
			registerWithCPU(reg, 3, 1000, 0)

			got, err := selector.SelectUnit([]uint64{1, 2, 3}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(uint64(2)))
		})

		It("should fall back to the lowest unit id among ties", func() {
			registerWithCPU(reg, 3, 1000, 0)
			registerWithCPU(reg, 2, 1000, 0)

			got, err := selector.SelectUnit([]uint64{3, 2}, 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(uint64(2)))
		})

		It("should never return a unit outside the candidate set", func() {
			registerWithCPU(reg, 1, 1000, 900)
			registerWithCPU(reg, 2, 1000, 950)

			got, err := selector.SelectUnit([]uint64{1, 2}, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect([]uint64{1, 2}).To(ContainElement(got))
		})

		It("should fail on an empty candidate set", func() {
			_, err := selector.SelectUnit(nil, 0)
			Expect(err).To(MatchError(ErrNoCandidates))
		})

		It("should abort on an unregistered candidate", func() {
			registerWithCPU(reg, 1, 1000, 0)
			_, err := selector.SelectUnit([]uint64{1, 42}, 1)
			Expect(err).To(MatchError(registry.ErrUnknownUnit))
		})
	})
})

var _ = Describe("PassthroughSelector", func() {
	var selector Selector

	BeforeEach(func() {
		var err error
		selector, err = NewSelector(PassthroughStrategy, registry.New(0, nil))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should keep work on the previous unit", func() {
		got, err := selector.SelectUnit([]uint64{5, 9, 3}, 9)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(uint64(9)))
	})

	It("should fall back to the lowest candidate", func() {
		got, err := selector.SelectUnit([]uint64{5, 9, 3}, 77)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(uint64(3)))
	})

	It("should fail on an empty candidate set", func() {
		_, err := selector.SelectUnit(nil, 0)
		Expect(err).To(MatchError(ErrNoCandidates))
	})
})

var _ = Describe("NewSelector", func() {
	It("should reject a nil registry", func() {
		_, err := NewSelector(ObstructionStrategy, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should reject an unknown strategy", func() {
		_, err := NewSelector(Strategy(42), registry.New(0, nil))
		Expect(err).To(HaveOccurred())
	})
})
