// Package access holds the role/operation permission matrix consulted by the
// lifecycle engines before any state mutation. It is a pure lookup, independent
// of the transport layer; route-level role middleware is only a coarse filter
// on top of it.
package access

// Role is a user role token as stored in the user directory and carried in
// auth claims.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleDoctor      Role = "DOCTOR"
	RoleNurse       Role = "NURSE"
	RoleSecretary   Role = "SECRETARY"
	RoleBiologist   Role = "BIOLOGIST"
	RoleRadiologist Role = "RADIOLOGIST"
)

// Operation names a role-gated engine operation.
type Operation string

const (
	OpAppointmentCreate        Operation = "appointment.create"
	OpAppointmentCheckIn       Operation = "appointment.check_in"
	OpAppointmentRequestVitals Operation = "appointment.request_vitals"
	OpAppointmentEnterVitals   Operation = "appointment.enter_vitals"
	OpAppointmentConsult       Operation = "appointment.consult"
	OpAppointmentClose         Operation = "appointment.close"
	OpAppointmentUpdate        Operation = "appointment.update"
	OpAppointmentCancel        Operation = "appointment.cancel"

	OpPrescriptionCreate        Operation = "prescription.create"
	OpPrescriptionSendToLab     Operation = "prescription.send_to_lab"
	OpPrescriptionCollectSample Operation = "prescription.collect_sample"
	OpPrescriptionStartAnalysis Operation = "prescription.start_analysis"
	OpPrescriptionUpdateStatus  Operation = "prescription.update_status"

	OpResultCreate Operation = "result.create"
	OpResultReview Operation = "result.review"

	OpVitalsAutoSave Operation = "vitals.auto_save"
	OpVitalsFinalize Operation = "vitals.finalize"

	OpAuditRead Operation = "audit.read"
)

var matrix = map[Operation][]Role{
	OpAppointmentCreate:        {RoleSecretary, RoleDoctor},
	OpAppointmentCheckIn:       {RoleSecretary, RoleNurse},
	OpAppointmentRequestVitals: {RoleDoctor},
	OpAppointmentEnterVitals:   {RoleNurse, RoleDoctor},
	OpAppointmentConsult:       {RoleDoctor},
	OpAppointmentClose:         {RoleSecretary},
	OpAppointmentUpdate:        {RoleSecretary},
	OpAppointmentCancel:        {RoleSecretary, RoleDoctor},

	OpPrescriptionCreate:        {RoleDoctor},
	OpPrescriptionSendToLab:     {RoleDoctor, RoleSecretary},
	OpPrescriptionCollectSample: {RoleNurse},
	OpPrescriptionStartAnalysis: {RoleBiologist},
	OpPrescriptionUpdateStatus:  {RoleDoctor, RoleBiologist},

	OpResultCreate: {RoleBiologist, RoleRadiologist},
	OpResultReview: {RoleDoctor},

	OpVitalsAutoSave: {RoleNurse, RoleDoctor},
	OpVitalsFinalize: {RoleNurse, RoleDoctor},

	OpAuditRead: {},
}

// Allowed reports whether role may invoke op. ADMIN is allowed everything.
// Unknown operations are denied for every non-admin role.
func Allowed(role Role, op Operation) bool {
	if role == RoleAdmin {
		return true
	}
	for _, r := range matrix[op] {
		if r == role {
			return true
		}
	}
	return false
}

// Valid reports whether r is one of the known role tokens.
func Valid(r Role) bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleNurse, RoleSecretary, RoleBiologist, RoleRadiologist:
		return true
	}
	return false
}
