package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden             ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly       ErrCode = "ADMIN_ACCESS_ONLY"
	ErrParticipantAccessOnly ErrCode = "PARTICIPANT_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam access ───────────────────────────────────────────────────
	ErrAccessDenied         ErrCode = "ACCESS_DENIED"
	ErrSessionClosed        ErrCode = "SESSION_CLOSED"
	ErrInvalidWindow        ErrCode = "INVALID_WINDOW"
	ErrOverlapConflict      ErrCode = "OVERLAP_CONFLICT"
	ErrAssignmentInProgress ErrCode = "ASSIGNMENT_IN_PROGRESS"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Username or password is incorrect."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrParticipantAccessOnly:
		return "This resource is restricted to participants."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Exam access ───────────────────────────────────────────────────
	case ErrAccessDenied:
		return "This exam is not open for you right now."
	case ErrSessionClosed:
		return "This exam session is no longer accepting input."
	case ErrInvalidWindow:
		return "The window start must be before its end."
	case ErrOverlapConflict:
		return "The window overlaps an existing assignment for this participant and exam."
	case ErrAssignmentInProgress:
		return "The assignment cannot be changed while an attempt is in progress."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."

	default:
		return "An unknown error occurred."
	}
}
