package octree_test

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/nbodytree/internal/octree"
)

const tolerance = 1e-3

var _ = Describe("Build", func() {
	Context("with no bodies", func() {
		It("returns a single empty root", func() {
			tree, err := octree.Build(nil, nil, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(tree.Nodes).To(HaveLen(1))
			Expect(tree.Root().State).To(Equal(octree.Empty))
			Expect(tree.Validate(nil, nil, tolerance)).To(Succeed())
		})
	})

	Context("with one body", func() {
		It("stores it in the root", func() {
			tree, err := octree.Build([]octree.Vec3{{3, 4, 5}}, []float32{2}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(tree.Nodes).To(HaveLen(1))

			root := tree.Root()
			Expect(root.State).To(Equal(octree.Body))
			Expect(root.CenterOfMass).To(Equal(octree.Vec3{3, 4, 5}))
			Expect(root.TotalMass).To(Equal(float32(2)))
			Expect(root.Range).To(BeZero())
		})

		It("treats a zero-mass body as occupied", func() {
			tree, err := octree.Build([]octree.Vec3{{3, 4, 5}}, []float32{0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(tree.Root().State).To(Equal(octree.Body))
		})
	})

	Context("with four bodies in disjoint octants", func() {
		positions := []octree.Vec3{
			{2.5, 2.5, 2.5},
			{7.5, 7.5, 2.5},
			{7.5, 2.5, 7.5},
			{2.5, 7.5, 7.5},
		}
		masses := []float32{1, 1, 1, 1}

		It("makes the root an interior node with four body leaves", func() {
			tree, err := octree.Build(positions, masses, 10)
			Expect(err).NotTo(HaveOccurred())

			root := tree.Root()
			Expect(root.State).To(Equal(octree.Interior))
			Expect(countChildren(root)).To(Equal(4))
			for _, c := range root.Children {
				if c != 0 {
					Expect(tree.Nodes[c].State).To(Equal(octree.Body))
				}
			}

			Expect(root.TotalMass).To(Equal(float32(4)))
			for k := 0; k < 3; k++ {
				Expect(root.CenterOfMass[k]).To(BeNumerically("~", 5, 1e-5))
			}
			Expect(root.PosMin).To(Equal(octree.Vec3{2.5, 2.5, 2.5}))
			Expect(root.PosMax).To(Equal(octree.Vec3{7.5, 7.5, 7.5}))
			Expect(root.Range).To(Equal(float32(5)))
		})

		It("allocates children in insertion order", func() {
			tree, err := octree.Build(positions, masses, 10)
			Expect(err).NotTo(HaveOccurred())

			root := tree.Root()
			Expect(root.Children[0b110]).To(Equal(uint32(1)))
			Expect(root.Children[0b000]).To(Equal(uint32(2)))
			Expect(root.Children[0b101]).To(Equal(uint32(3)))
			Expect(root.Children[0b011]).To(Equal(uint32(4)))
		})
	})

	Context("with coincident bodies", func() {
		positions := []octree.Vec3{{1, 1, 1}, {1, 1, 1}}
		masses := []float32{1, 3}

		It("recurses to the depth cap and ends in one overflow list", func() {
			tree, err := octree.Build(positions, masses, 10)
			Expect(err).NotTo(HaveOccurred())

			root := tree.Root()
			Expect(root.State).To(Equal(octree.Interior))
			Expect(root.TotalMass).To(Equal(float32(4)))
			Expect(root.CenterOfMass).To(Equal(octree.Vec3{1, 1, 1}))

			stats := tree.Stats()
			Expect(stats.OverflowLists).To(Equal(1))
			Expect(stats.OverflowBodies).To(Equal(2))
			Expect(stats.MaxDepth).To(Equal(octree.DefaultMaxDepth))
			Expect(tree.Nodes).To(HaveLen(octree.DefaultMaxDepth + 1 + 2))

			var owner *octree.Node
			tree.Walk(func(v octree.Visit) bool {
				if v.Node.State == octree.OverflowList {
					owner = v.Node
					Expect(v.Depth).To(Equal(octree.DefaultMaxDepth))
				}
				return true
			})
			Expect(owner).NotTo(BeNil())

			start, end := owner.Run()
			Expect(end - start).To(Equal(2))
			Expect(tree.Nodes[start].TotalMass).To(Equal(float32(1)))
			Expect(tree.Nodes[start+1].TotalMass).To(Equal(float32(3)))
			Expect(owner.TotalMass).To(Equal(float32(4)))

			Expect(tree.Validate(positions, masses, tolerance)).To(Succeed())
		})

		It("appends later arrivals to the same run", func() {
			pts := []octree.Vec3{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
			ms := []float32{1, 2, 3, 4}
			tree, err := octree.Build(pts, ms, 10, octree.WithMaxDepth(3))
			Expect(err).NotTo(HaveOccurred())

			stats := tree.Stats()
			Expect(stats.OverflowLists).To(Equal(1))
			Expect(stats.LongestRun).To(Equal(4))
			Expect(tree.Root().TotalMass).To(Equal(float32(10)))
			Expect(tree.Validate(pts, ms, tolerance)).To(Succeed())
		})

		It("terminates without a fixed cap", func() {
			tree, err := octree.Build(positions, masses, 10, octree.WithUnboundedDepth())
			Expect(err).NotTo(HaveOccurred())
			Expect(tree.MaxDepth).To(Equal(octree.Unbounded))

			stats := tree.Stats()
			Expect(stats.OverflowLists).To(Equal(1))
			Expect(stats.MaxDepth).To(BeNumerically(">", octree.DefaultMaxDepth))
			Expect(tree.Validate(positions, masses, tolerance)).To(Succeed())
		})
	})

	Context("with a depth cap of zero", func() {
		It("keeps every body in the root's run", func() {
			rng := rand.New(rand.NewSource(3))
			positions, masses := uniformBodies(rng, 20, 0, 10)
			tree, err := octree.Build(positions, masses, 10, octree.WithMaxDepth(0))
			Expect(err).NotTo(HaveOccurred())

			root := tree.Root()
			Expect(root.State).To(Equal(octree.OverflowList))
			Expect(root.Children[0]).To(Equal(uint32(1)))
			Expect(root.Children[1]).To(Equal(uint32(20)))
			Expect(tree.Nodes).To(HaveLen(21))
			Expect(tree.Validate(positions, masses, tolerance)).To(Succeed())
		})
	})

	Context("with a body on a cell boundary", func() {
		It("routes it to the upper octant", func() {
			positions := []octree.Vec3{{1, 1, 1}, {5, 5, 5}}
			masses := []float32{1, 1}
			tree, err := octree.Build(positions, masses, 10)
			Expect(err).NotTo(HaveOccurred())

			root := tree.Root()
			Expect(root.Children[0b111]).NotTo(BeZero())
			Expect(tree.Nodes[root.Children[0b111]].CenterOfMass).To(Equal(octree.Vec3{5, 5, 5}))
			Expect(tree.Validate(positions, masses, tolerance)).To(Succeed())
		})

		It("routes a body on the far face to the upper octant", func() {
			positions := []octree.Vec3{{0, 0, 0}, {10, 10, 10}, {10, 0, 10}}
			masses := []float32{1, 1, 1}
			tree, err := octree.Build(positions, masses, 10)
			Expect(err).NotTo(HaveOccurred())

			root := tree.Root()
			Expect(root.Children[0b000]).NotTo(BeZero())
			Expect(root.Children[0b111]).NotTo(BeZero())
			Expect(root.Children[0b101]).NotTo(BeZero())
			Expect(tree.Validate(positions, masses, tolerance)).To(Succeed())
		})
	})

	Context("with malformed input", func() {
		It("rejects mismatched lengths", func() {
			_, err := octree.Build([]octree.Vec3{{1, 1, 1}}, []float32{1, 2}, 10)
			Expect(err).To(MatchError(octree.ErrLengthMismatch))
		})

		It("rejects a non-positive world", func() {
			_, err := octree.Build(nil, nil, 0)
			Expect(err).To(MatchError(octree.ErrWorldSize))
		})

		It("reports the index of a non-finite body", func() {
			nan := float32(0)
			nan = nan / nan
			_, err := octree.Build([]octree.Vec3{{1, 1, 1}, {nan, 1, 1}}, []float32{1, 1}, 10)
			Expect(err).To(MatchError(octree.ErrNonFinite))

			var bodyErr *octree.BodyError
			Expect(errors.As(err, &bodyErr)).To(BeTrue())
			Expect(bodyErr.Index).To(Equal(1))
		})

		It("does not mutate the inputs", func() {
			rng := rand.New(rand.NewSource(9))
			positions, masses := uniformBodies(rng, 50, 0, 100)
			before := append([]octree.Vec3(nil), positions...)
			beforeMass := append([]float32(nil), masses...)

			_, err := octree.Build(positions, masses, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(positions).To(Equal(before))
			Expect(masses).To(Equal(beforeMass))
		})
	})
})

var _ = Describe("Builder", func() {
	It("produces identical trees for identical input", func() {
		rng := rand.New(rand.NewSource(11))
		positions, masses := uniformBodies(rng, 500, 0, 100)

		a, err := octree.Build(positions, masses, 100)
		Expect(err).NotTo(HaveOccurred())
		b, err := octree.Build(positions, masses, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Nodes).To(Equal(b.Nodes))
	})

	It("reuses its storage without leaking the previous tree", func() {
		rng := rand.New(rand.NewSource(12))
		bigPos, bigMass := clusteredBodies(rng, 400, octree.Vec3{50, 50, 50}, 0.01)
		smallPos, smallMass := clusteredBodies(rng, 40, octree.Vec3{20, 70, 30}, 0.01)

		builder := octree.NewBuilder()
		_, err := builder.Build(bigPos, bigMass, 100)
		Expect(err).NotTo(HaveOccurred())

		reused, err := builder.Build(smallPos, smallMass, 100)
		Expect(err).NotTo(HaveOccurred())
		got := append([]octree.Node(nil), reused.Nodes...)

		fresh, err := octree.Build(smallPos, smallMass, 100)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(fresh.Nodes))
		Expect(reused.Validate(smallPos, smallMass, tolerance)).To(Succeed())
	})
})

var _ = Describe("Validate", func() {
	var (
		positions []octree.Vec3
		masses    []float32
		tree      *octree.Tree
	)

	BeforeEach(func() {
		rng := rand.New(rand.NewSource(21))
		positions, masses = uniformBodies(rng, 64, 0, 100)
		var err error
		tree, err = octree.Build(positions, masses, 100)
		Expect(err).NotTo(HaveOccurred())
	})

	It("accepts a freshly built tree", func() {
		Expect(tree.Validate(positions, masses, tolerance)).To(Succeed())
	})

	It("detects a broken mass aggregate", func() {
		tree.Root().TotalMass *= 2
		err := tree.Validate(positions, masses, tolerance)
		Expect(err).To(MatchError(octree.ErrInvalid))

		var verr *octree.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(verr.Property).To(Equal("conservation"))
	})

	It("detects a missing body", func() {
		extra := append(positions, octree.Vec3{1, 2, 3})
		extraMass := append(masses, 1)
		Expect(tree.Validate(extra, extraMass, tolerance)).To(MatchError(octree.ErrInvalid))
	})

	It("detects a leaf in the wrong octant", func() {
		root := tree.Root()
		var occupied []int
		for oct, c := range root.Children {
			if c != 0 {
				occupied = append(occupied, oct)
			}
		}
		Expect(len(occupied)).To(BeNumerically(">=", 2))
		a, b := occupied[0], occupied[1]
		root.Children[a], root.Children[b] = root.Children[b], root.Children[a]

		var verr *octree.ValidationError
		Expect(errors.As(tree.Validate(positions, masses, tolerance), &verr)).To(BeTrue())
		Expect(verr.Property).To(Equal("spatial partition"))
	})
})

var _ = Describe("Properties", func() {
	type input struct {
		positions []octree.Vec3
		masses    []float32
	}

	DescribeTable("hold for every build",
		func(gen func(*rand.Rand) input, opts ...octree.Option) {
			for seed := int64(1); seed <= 5; seed++ {
				in := gen(rand.New(rand.NewSource(seed)))
				tree, err := octree.Build(in.positions, in.masses, 100, opts...)
				Expect(err).NotTo(HaveOccurred())
				Expect(tree.Validate(in.positions, in.masses, tolerance)).To(Succeed())

				var sum float64
				for _, m := range in.masses {
					sum += float64(m)
				}
				Expect(float64(tree.Root().TotalMass)).To(BeNumerically("~", sum, sum*tolerance))

				stats := tree.Stats()
				Expect(stats.Bodies).To(Equal(len(in.positions)))
				if tree.MaxDepth != octree.Unbounded {
					Expect(stats.MaxDepth).To(BeNumerically("<=", tree.MaxDepth))
				}
			}
		},
		Entry("uniform", func(rng *rand.Rand) input {
			p, m := uniformBodies(rng, 1000, 0, 100)
			return input{p, m}
		}),
		Entry("middle third", func(rng *rand.Rand) input {
			p, m := uniformBodies(rng, 1000, 100.0/3, 200.0/3)
			return input{p, m}
		}),
		Entry("clustered with duplicates", func(rng *rand.Rand) input {
			p, m := clusteredBodies(rng, 300, octree.Vec3{50, 50, 50}, 1e-3)
			return input{p, m}
		}),
		Entry("clustered with a shallow cap", func(rng *rand.Rand) input {
			p, m := clusteredBodies(rng, 300, octree.Vec3{10, 80, 40}, 1)
			return input{p, m}
		}, octree.WithMaxDepth(4)),
		Entry("clustered without a cap", func(rng *rand.Rand) input {
			p, m := clusteredBodies(rng, 300, octree.Vec3{50, 50, 50}, 1e-3)
			return input{p, m}
		}, octree.WithUnboundedDepth()),
		Entry("outside the world cube", func(rng *rand.Rand) input {
			p, m := uniformBodies(rng, 200, -50, 150)
			return input{p, m}
		}),
	)
})
