package errors

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Structured Errors", func() {
	Describe("AppError", func() {
		Context("basic error creation", func() {
			It("should create error with correct properties", func() {
				err := New(ErrorTypeValidation, "test message")

				Expect(err.Type).To(Equal(ErrorTypeValidation))
				Expect(err.Message).To(Equal("test message"))
				Expect(err.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(err.Details).To(BeEmpty())
				Expect(err.Cause).To(BeNil())
			})

			It("should implement error interface correctly", func() {
				err := New(ErrorTypeValidation, "test message")
				Expect(err.Error()).To(Equal("validation: test message"))
			})

			It("should include details in error string when present", func() {
				err := New(ErrorTypeValidation, "test message").WithDetails("extra info")
				Expect(err.Error()).To(Equal("validation: test message (extra info)"))
			})
		})

		Context("error wrapping", func() {
			It("should wrap underlying error", func() {
				originalErr := errors.New("original error")
				wrappedErr := Wrap(originalErr, ErrorTypeDatabase, "operation failed")

				Expect(wrappedErr.Type).To(Equal(ErrorTypeDatabase))
				Expect(wrappedErr.Message).To(Equal("operation failed"))
				Expect(wrappedErr.Cause).To(Equal(originalErr))
				Expect(wrappedErr.Unwrap()).To(Equal(originalErr))
			})

			It("should format wrapped error with arguments", func() {
				originalErr := errors.New("connection refused")
				wrappedErr := Wrapf(originalErr, ErrorTypeNetwork, "failed to connect to %s:%d", "localhost", 5432)

				Expect(wrappedErr.Message).To(Equal("failed to connect to localhost:5432"))
				Expect(wrappedErr.Cause).To(Equal(originalErr))
			})
		})

		Context("adding details", func() {
			It("should add details to existing error", func() {
				err := New(ErrorTypeAuth, "authentication failed")
				detailedErr := err.WithDetails("invalid token")

				Expect(detailedErr.Details).To(Equal("invalid token"))
				Expect(detailedErr).To(BeIdenticalTo(err))
			})

			It("should add formatted details", func() {
				err := New(ErrorTypeAuth, "authentication failed")
				detailedErr := err.WithDetailsf("user %s, attempt %d", "john", 3)

				Expect(detailedErr.Details).To(Equal("user john, attempt 3"))
			})
		})
	})

	Describe("HTTP Status Code Mapping", func() {
		It("should map error types to correct HTTP status codes", func() {
			testCases := []struct {
				errorType  ErrorType
				statusCode int
			}{
				{ErrorTypeValidation, http.StatusBadRequest},
				{ErrorTypeAuth, http.StatusUnauthorized},
				{ErrorTypeNotFound, http.StatusNotFound},
				{ErrorTypeConflict, http.StatusConflict},
				{ErrorTypeTimeout, http.StatusRequestTimeout},
				{ErrorTypeRateLimit, http.StatusTooManyRequests},
				{ErrorTypeDatabase, http.StatusInternalServerError},
				{ErrorTypeNetwork, http.StatusInternalServerError},
				{ErrorTypeInternal, http.StatusInternalServerError},
			}

			for _, tc := range testCases {
				err := New(tc.errorType, "test message")
				Expect(err.StatusCode).To(Equal(tc.statusCode))
			}
		})
	})

	Describe("Predefined Error Constructors", func() {
		It("should create validation error", func() {
			err := NewValidationError("invalid input")
			Expect(err.Type).To(Equal(ErrorTypeValidation))
			Expect(err.Message).To(Equal("invalid input"))
		})

		It("should create database error", func() {
			originalErr := errors.New("connection lost")
			err := NewDatabaseError("query", originalErr)

			Expect(err.Type).To(Equal(ErrorTypeDatabase))
			Expect(err.Message).To(ContainSubstring("database operation failed: query"))
			Expect(err.Cause).To(Equal(originalErr))
		})

		It("should create not found error", func() {
			err := NewNotFoundError("pipeline run")
			Expect(err.Type).To(Equal(ErrorTypeNotFound))
			Expect(err.Message).To(Equal("pipeline run not found"))
		})

		It("should create timeout error", func() {
			err := NewTimeoutError("extraction service call")
			Expect(err.Type).To(Equal(ErrorTypeTimeout))
			Expect(err.Message).To(Equal("operation timed out: extraction service call"))
		})
	})

	Describe("Error Type Checking", func() {
		It("should correctly identify error types", func() {
			validationErr := NewValidationError("test")
			authErr := NewAuthError("test")

			Expect(IsType(validationErr, ErrorTypeValidation)).To(BeTrue())
			Expect(IsType(validationErr, ErrorTypeAuth)).To(BeFalse())
			Expect(IsType(authErr, ErrorTypeAuth)).To(BeTrue())
		})

		It("should handle non-AppError types", func() {
			regularErr := errors.New("regular error")
			Expect(IsType(regularErr, ErrorTypeValidation)).To(BeFalse())
			Expect(GetType(regularErr)).To(Equal(ErrorTypeInternal))
		})
	})

	Describe("Safe Error Messages", func() {
		It("should pass validation messages through", func() {
			err := NewValidationError("specific validation message")
			Expect(SafeErrorMessage(err)).To(Equal("specific validation message"))
		})

		It("should return the generic database message", func() {
			err := New(ErrorTypeDatabase, "internal details")
			Expect(SafeErrorMessage(err)).To(Equal(ErrorMessages.InternalError))
		})

		It("should return generic message for regular errors", func() {
			regularErr := errors.New("internal panic")
			Expect(SafeErrorMessage(regularErr)).To(Equal("An unexpected error occurred"))
		})
	})

	Describe("Logging Fields", func() {
		It("should generate structured logging fields", func() {
			originalErr := errors.New("connection failed")
			appErr := Wrapf(originalErr, ErrorTypeDatabase, "query failed").WithDetails("table: lexicon")

			fields := LogFields(appErr)

			Expect(fields).To(HaveKey("error"))
			Expect(fields).To(HaveKey("error_type"))
			Expect(fields).To(HaveKey("status_code"))
			Expect(fields).To(HaveKey("error_details"))
			Expect(fields).To(HaveKey("underlying_error"))

			Expect(fields["error_type"]).To(Equal("database"))
			Expect(fields["error_details"]).To(Equal("table: lexicon"))
			Expect(fields["underlying_error"]).To(Equal("connection failed"))
		})

		It("should omit optional keys when absent", func() {
			err := NewValidationError("invalid input")
			fields := LogFields(err)

			Expect(fields).NotTo(HaveKey("error_details"))
			Expect(fields).NotTo(HaveKey("underlying_error"))
		})
	})

	Describe("Error Chaining", func() {
		It("should handle empty error list", func() {
			Expect(Chain()).To(BeNil())
		})

		It("should filter nil errors", func() {
			err1 := errors.New("error 1")
			err2 := errors.New("error 2")

			err := Chain(err1, nil, err2, nil)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("error 1"))
			Expect(err.Error()).To(ContainSubstring("error 2"))
			Expect(err.Error()).To(ContainSubstring(" -> "))
		})

		It("should return nil when all errors are nil", func() {
			Expect(Chain(nil, nil, nil)).To(BeNil())
		})
	})
})
