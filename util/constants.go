package util

const (
	AdminCollection   = "admins"
	StaffCollection   = "staffs"
	PatientCollection = "patients"

	PatientKey = "patient:"

	FrontPrescriptionFolder = "prescriptions/front"
	BackPrescriptionFolder  = "prescriptions/back"
)

const (
	INVALID_CREDENTIALS        = "Invalid credentials"
	ACCESS_DENIED              = "Access denied"
	ACCESS_DENIED_NOT_STAFF    = "Access denied. Not a staff."
	ACCESS_DENIED_STATUS       = "Access denied. Current status: "
	TOKEN_MISSING              = "Unauthorized, token missing"
	TOKEN_INVALID              = "Unauthorized, invalid token"
	STAFF_ALREADY_EXISTS       = "Staff already exists"
	STAFF_REGISTERED           = "Staff registered successfully. Your account is pending approval."
	LOGIN_SUCCESSFUL           = "Login successful"
	PROVIDE_ALL_FIELDS         = "Please provide all required fields"
	PROVIDE_TOKEN_AND_PASSWORD = "Please provide token and new password"
	PROVIDE_EMAIL              = "Please provide an email"
	INVALID_OR_EXPIRED_TOKEN   = "Invalid or expired token"
	RESET_EMAIL_SENT           = "Password reset email sent"
	EMAIL_NOT_SENT             = "Email could not be sent"
	PASSWORD_RESET_SUCCESSFUL  = "Password reset successful"
	ACCOUNT_NOT_FOUND          = " with this email does not exist"
	STAFF_NOT_FOUND            = "Staff not found"
	PATIENT_NOT_FOUND          = "Patient not found"
	INVALID_STATUS             = "Invalid status value"
	INVALID_STATUS_TRANSITION  = "Status change not allowed"
	TOO_MANY_REQUESTS          = "Too many requests, please try again later"
	SERVER_ERROR               = "Server error"
)
