package internaldefs

import (
	"github.com/MrEthical07/prepwise"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   prepwise.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for export.
type HistogramDef struct {
	ID   prepwise.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported alongside the engine counters.
const AuditDroppedName = "prepwise_audit_dropped_total"

var CounterDefs = []CounterDef{
	{ID: prepwise.MetricRegisterSuccess, Name: "prepwise_register_success_total", Help: "Profiles created."},
	{ID: prepwise.MetricRegisterDuplicate, Name: "prepwise_register_duplicate_total", Help: "Registrations rejected because a profile already existed."},
	{ID: prepwise.MetricRegisterEmailInUse, Name: "prepwise_register_email_in_use_total", Help: "Registrations rejected because the email was taken."},
	{ID: prepwise.MetricRegisterFailure, Name: "prepwise_register_failure_total", Help: "Registrations that failed for any other reason."},
	{ID: prepwise.MetricSignInSuccess, Name: "prepwise_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: prepwise.MetricSignInUserNotFound, Name: "prepwise_sign_in_user_not_found_total", Help: "Sign-ins for an unknown email."},
	{ID: prepwise.MetricSignInFailure, Name: "prepwise_sign_in_failure_total", Help: "Sign-ins that failed for any other reason."},
	{ID: prepwise.MetricSessionCreated, Name: "prepwise_session_created_total", Help: "Session cookies issued."},
	{ID: prepwise.MetricSessionCreateFailure, Name: "prepwise_session_create_failure_total", Help: "Session cookie requests the verifier rejected."},
	{ID: prepwise.MetricSessionResolved, Name: "prepwise_session_resolved_total", Help: "Requests resolved to a signed-in user."},
	{ID: prepwise.MetricSessionAbsent, Name: "prepwise_session_absent_total", Help: "Requests resolved to nobody."},
	{ID: prepwise.MetricSignOut, Name: "prepwise_sign_out_total", Help: "Completed sign-outs."},
	{ID: prepwise.MetricSignOutFailure, Name: "prepwise_sign_out_failure_total", Help: "Sign-outs whose revocation failed."},
}

var HistogramDefs = []HistogramDef{
	{ID: prepwise.MetricResolveLatency, Name: "prepwise_resolve_latency_seconds", Help: "Time spent resolving the current user."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for use inside instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
