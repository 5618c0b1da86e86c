package services_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/internal/config"
	"github.com/enliterator/enliterator/pkg/ekn/services"
)

var _ = Describe("Provider factories", func() {
	It("rejects an unknown rights provider", func() {
		_, err := services.NewRightsService(config.ServiceConfig{Provider: "carrier-pigeon"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects an unknown extraction provider", func() {
		_, err := services.NewExtractionService(config.ServiceConfig{Provider: "carrier-pigeon"})
		Expect(err).To(HaveOccurred())
	})

	It("defaults extraction to anthropic when no provider is set", func() {
		svc, err := services.NewExtractionService(config.ServiceConfig{Model: "claude-sonnet-4-5"})
		Expect(err).ToNot(HaveOccurred())
		Expect(svc).ToNot(BeNil())
	})
})
