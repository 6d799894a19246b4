package telemetry_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gridpulse.dev/telemetry/internal/telemetry"
)

var _ = Describe("Errors", func() {
	Describe("ErrNotFound", func() {
		It("should survive wrapping", func() {
			wrapped := fmt.Errorf("meter METER-1: %w", telemetry.ErrNotFound)
			Expect(errors.Is(wrapped, telemetry.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("PersistenceError", func() {
		It("should report the failed operation and unwrap its cause", func() {
			cause := errors.New("connection reset")
			pe := telemetry.NewPersistenceError("meter ingest", cause)

			Expect(pe.Error()).To(ContainSubstring("meter ingest"))
			Expect(errors.Is(pe, cause)).To(BeTrue())
		})

		It("should be distinguishable from ErrNotFound", func() {
			pe := telemetry.NewPersistenceError("vehicle ingest", errors.New("disk full"))
			Expect(errors.Is(pe, telemetry.ErrNotFound)).To(BeFalse())

			var target *telemetry.PersistenceError
			Expect(errors.As(error(pe), &target)).To(BeTrue())
		})
	})
})
