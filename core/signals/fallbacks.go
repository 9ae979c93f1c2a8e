package signals

// Fallback values substituted when a provider fails or its breaker is open.
// Each is the most conservative value for its signal: neutral scores with
// zero confidence, and a safety result that assumes disengagement so an
// unavailable safety classifier can never cause an unsafe reply.

// FallbackLinguistic is a neutral SSS with no confidence.
func FallbackLinguistic() Linguistic {
	return Linguistic{Score: 0.5, Confidence: 0, Category: "unknown"}
}

// FallbackAuthor is a neutral ARS with no relationship history.
func FallbackAuthor() AuthorContext {
	return AuthorContext{Score: 0.5, Confidence: 0}
}

// FallbackVelocity is baseline velocity (ratio 1.0, nothing unusual).
func FallbackVelocity() Velocity {
	return Velocity{Ratio: 1.0, Category: "baseline", Confidence: 0}
}

// FallbackSemantic is a neutral TRS.
func FallbackSemantic() SemanticTopic {
	return SemanticTopic{Score: 0.5, Confidence: 0, Context: "unknown"}
}

// FallbackSafety assumes disengage. An unreachable safety classifier must
// read as "do not engage", never as "safe".
func FallbackSafety() Safety {
	return Safety{
		ShouldDisengage: true,
		Flags:           []string{"safety_unavailable"},
		Severity:        "unknown",
	}
}

// FallbackTier is a standard-tier, non-power-user classification.
func FallbackTier() Tier {
	return Tier{UserTier: "standard", ResponseTargetMinutes: 240}
}

// FallbackCompetitor reports no competitor detected.
func FallbackCompetitor() Competitor {
	return Competitor{}
}

// FallbackTemporal reports no temporal adjustment.
func FallbackTemporal() Temporal {
	return Temporal{Context: "unknown"}
}
