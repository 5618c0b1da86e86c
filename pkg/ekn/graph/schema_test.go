package graph_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/graph"
)

var _ = Describe("ValidateDatabaseName", func() {
	DescribeTable("should enforce the ^ekn-[0-9]+$ pattern",
		func(name string, shouldSucceed bool) {
			err := graph.ValidateDatabaseName(name)
			if shouldSucceed {
				Expect(err).ToNot(HaveOccurred())
			} else {
				Expect(err).To(HaveOccurred())
			}
		},
		Entry("ekn-1 is valid", "ekn-1", true),
		Entry("ekn-42 is valid", "ekn-42", true),
		Entry("ekn- with no digits is invalid", "ekn-", false),
		Entry("EKN-1 wrong case is invalid", "EKN-1", false),
		Entry("ekn-1x trailing junk is invalid", "ekn-1x", false),
		Entry("missing prefix is invalid", "1", false),
		Entry("empty string is invalid", "", false),
	)
})
