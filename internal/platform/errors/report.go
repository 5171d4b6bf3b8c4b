package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/louisbranch/podcom/internal/platform/errors/i18n"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = i18n.BaseLocale

// HandleError converts domain errors to a gRPC status carrying the
// user-facing message from the i18n catalog for locale. Errors without a
// domain code become Internal with a generic message.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if stderrors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		userMsg := catalog.Format(string(appErr.Code), appErr.Metadata)
		return appErr.ToGRPCStatus(catalog.Locale(), userMsg)
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// Describe renders err as one operator log line: code, category, status
// code, whether resubmitting later can succeed, the localized message, and
// the underlying error text.
func Describe(err error, locale string) string {
	if err == nil {
		return ""
	}
	code := CodeOf(err)
	st, _ := status.FromError(HandleError(err, locale))
	message := st.Message()
	for _, detail := range st.Details() {
		if localized, ok := detail.(*errdetails.LocalizedMessage); ok && localized.GetMessage() != "" {
			message = localized.GetMessage()
		}
	}
	return fmt.Sprintf("%s [category=%s status=%s retryable=%t] %s: %v",
		code, code.Category(), st.Code(), code.Retryable(), message, err)
}
