package earcon

// Reason classifies why a playback attempt produced no sound.
type Reason string

const (
	// ReasonDisabled means the feature toggle was off; nothing was attempted.
	ReasonDisabled Reason = "disabled"
	// ReasonResolutionFailed means the locator did not map to a readable file.
	ReasonResolutionFailed Reason = "resolutionFailed"
	// ReasonPlatformError covers everything after resolution: decode errors,
	// missing platform players, device failures, flood-guard denials.
	ReasonPlatformError Reason = "platformError"
)

// Outcome describes how a playback attempt ended. Play never returns it to
// the caller; it reaches observers through the OnOutcome hook and the logs.
type Outcome struct {
	OK       bool    `json:"ok"`
	Reason   Reason  `json:"reason,omitempty"`
	Attempts int     `json:"attempts,omitempty"`
	Locator  Locator `json:"locator"`
}

func success(loc Locator) Outcome {
	return Outcome{OK: true, Locator: loc}
}

func failure(loc Locator, reason Reason) Outcome {
	return Outcome{Locator: loc, Reason: reason}
}
