package services_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/enliterator/enliterator/pkg/ekn/services"
)

var _ = Describe("ValidateRightsResponse", func() {
	It("accepts a well-formed response", func() {
		body := []byte(`{"confidence":0.9,"license":"creative_commons","consent":"granted","publishable":true,"trainable":true}`)
		Expect(services.ValidateRightsResponse(context.Background(), body)).To(Succeed())
	})

	It("accepts a low-confidence response without treating it as invalid", func() {
		body := []byte(`{"confidence":0,"license":"unknown","consent":"unknown","publishable":false,"trainable":false}`)
		Expect(services.ValidateRightsResponse(context.Background(), body)).To(Succeed())
	})

	It("rejects a response missing a required field", func() {
		body := []byte(`{"confidence":0.9,"license":"creative_commons"}`)
		Expect(services.ValidateRightsResponse(context.Background(), body)).To(HaveOccurred())
	})

	It("rejects a confidence value outside [0,1]", func() {
		body := []byte(`{"confidence":1.5,"license":"creative_commons","consent":"granted","publishable":true,"trainable":true}`)
		Expect(services.ValidateRightsResponse(context.Background(), body)).To(HaveOccurred())
	})

	It("rejects non-JSON input", func() {
		Expect(services.ValidateRightsResponse(context.Background(), []byte("not json"))).To(HaveOccurred())
	})
})
