package graph_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/graph"
	"github.com/enliterator/enliterator/pkg/ekn/model"
)

var _ = Describe("Verb Glossary", func() {

	Describe("Lookup", func() {
		DescribeTable("should resolve every representative verb from the spec",
			func(verb model.Verb, wantSource, wantTarget model.PoolLabel, wantReverse model.Verb, wantSymmetric bool) {
				entry, ok := graph.Lookup(verb)
				Expect(ok).To(BeTrue())
				if entry.SourceAny {
					Expect(wantSource).To(Equal(model.PoolLabel("*")))
				} else {
					Expect(entry.SourceLabel).To(Equal(wantSource))
				}
				if entry.TargetAny {
					Expect(wantTarget).To(Equal(model.PoolLabel("*")))
				} else {
					Expect(entry.TargetLabel).To(Equal(wantTarget))
				}
				Expect(entry.Reverse).To(Equal(wantReverse))
				Expect(entry.Symmetric).To(Equal(wantSymmetric))
			},
			Entry("embodies: Manifest -> Idea, reverse is_embodiment_of",
				model.Verb("embodies"), model.PoolManifest, model.PoolIdea, model.Verb("is_embodiment_of"), false),
			Entry("elicits: Manifest -> Experience, reverse is_elicited_by",
				model.Verb("elicits"), model.PoolManifest, model.PoolExperience, model.Verb("is_elicited_by"), false),
			Entry("refines: Evolutionary -> Idea, reverse is_refined_by",
				model.Verb("refines"), model.PoolEvolutionary, model.PoolIdea, model.Verb("is_refined_by"), false),
			Entry("version_of: Evolutionary -> Manifest, reverse has_version",
				model.Verb("version_of"), model.PoolEvolutionary, model.PoolManifest, model.Verb("has_version"), false),
			Entry("co_occurs_with: Relational <-> Relational, symmetric",
				model.Verb("co_occurs_with"), model.PoolRelational, model.PoolRelational, model.Verb(""), true),
			Entry("located_at: Manifest -> Spatial, reverse hosts",
				model.Verb("located_at"), model.PoolManifest, model.PoolSpatial, model.Verb("hosts"), false),
			Entry("adjacent_to: Spatial <-> Spatial, symmetric",
				model.Verb("adjacent_to"), model.PoolSpatial, model.PoolSpatial, model.Verb(""), true),
			Entry("validated_by: Practical -> Experience, reverse validates",
				model.Verb("validated_by"), model.PoolPractical, model.PoolExperience, model.Verb("validates"), false),
			Entry("supports: Evidence -> Idea, no reverse",
				model.Verb("supports"), model.PoolEvidence, model.PoolIdea, model.Verb(""), false),
			Entry("refutes: Evidence -> Idea, no reverse",
				model.Verb("refutes"), model.PoolEvidence, model.PoolIdea, model.Verb(""), false),
			Entry("codifies: Idea -> Practical, reverse derived_from",
				model.Verb("codifies"), model.PoolIdea, model.PoolPractical, model.Verb("derived_from"), false),
			Entry("feeds_back: Emanation -> Idea, reverse is_fed_by",
				model.Verb("feeds_back"), model.PoolEmanation, model.PoolIdea, model.Verb("is_fed_by"), false),
		)

		It("reports influences as Idea -> * with reverse is_influenced_by", func() {
			entry, ok := graph.Lookup("influences")
			Expect(ok).To(BeTrue())
			Expect(entry.SourceLabel).To(Equal(model.PoolIdea))
			Expect(entry.TargetAny).To(BeTrue())
			Expect(entry.Reverse).To(Equal(model.Verb("is_influenced_by")))
		})

		It("reports an unknown verb as absent", func() {
			_, ok := graph.Lookup("teleports_to")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("AllVerbs", func() {
		It("includes HasRights alongside every glossary verb", func() {
			verbs := graph.AllVerbs()
			Expect(verbs).To(ContainElement(graph.HasRights))
			Expect(verbs).To(ContainElement(model.Verb("embodies")))
			Expect(len(verbs)).To(Equal(len(graph.Glossary) + 1))
		})
	})

	Describe("VerbEntry matching", func() {
		It("matches any source/target when wildcarded", func() {
			entry, _ := graph.Lookup("influences")
			Expect(entry.MatchesSource(model.PoolIdea)).To(BeTrue())
			Expect(entry.MatchesTarget(model.PoolManifest)).To(BeTrue())
			Expect(entry.MatchesTarget(model.PoolSpatial)).To(BeTrue())
		})

		It("matches only the declared label when not wildcarded", func() {
			entry, _ := graph.Lookup("embodies")
			Expect(entry.MatchesSource(model.PoolManifest)).To(BeTrue())
			Expect(entry.MatchesSource(model.PoolIdea)).To(BeFalse())
		})
	})

	Describe("ReplaceGlossary", func() {
		AfterEach(func() {
			graph.ReplaceGlossary(nil)
		})

		It("swaps the table Lookup and AllVerbs read from", func() {
			graph.ReplaceGlossary(map[model.Verb]graph.VerbEntry{
				"narrates": {SourceLabel: model.PoolManifest, TargetLabel: model.PoolIdea},
			})

			_, stillKnown := graph.Lookup("embodies")
			Expect(stillKnown).To(BeFalse())

			entry, ok := graph.Lookup("narrates")
			Expect(ok).To(BeTrue())
			Expect(entry.SourceLabel).To(Equal(model.PoolManifest))
			Expect(graph.AllVerbs()).To(ConsistOf(model.Verb("narrates"), graph.HasRights))
		})

		It("restores the built-in table when passed nil", func() {
			graph.ReplaceGlossary(map[model.Verb]graph.VerbEntry{"narrates": {}})
			graph.ReplaceGlossary(nil)

			_, ok := graph.Lookup("embodies")
			Expect(ok).To(BeTrue())
		})
	})

	Describe("ParseGlossaryFile", func() {
		It("parses a JSON-encoded verb table", func() {
			dir := GinkgoT().TempDir()
			path := dir + "/verb_glossary.json"
			Expect(os.WriteFile(path, []byte(`{"narrates": {"SourceLabel": "Manifest", "TargetLabel": "Idea"}}`), 0o644)).To(Succeed())

			table, err := graph.ParseGlossaryFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(table).To(HaveKey(model.Verb("narrates")))
			Expect(table["narrates"].SourceLabel).To(Equal(model.PoolManifest))
		})

		It("returns an error for a missing file", func() {
			_, err := graph.ParseGlossaryFile("/nonexistent/verb_glossary.json")
			Expect(err).To(HaveOccurred())
		})
	})
})
