package models

import "strings"

// NormalizeStatus canonicalizes an intervention status token as reported
// by the backend. Older deployments spell the third stage "in-progress";
// the canonical enumeration uses "in_progress". Unknown tokens are
// returned trimmed and lowercased rather than rejected.
func NormalizeStatus(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "pending":
		return StatusPending
	case "accepted":
		return StatusAccepted
	case "in_progress", "in-progress":
		return StatusInProgress
	case "completed":
		return StatusCompleted
	case "closed":
		return StatusClosed
	default:
		return v
	}
}

// NormalizeSubStatus canonicalizes the optional agent sub-status.
func NormalizeSubStatus(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "en-route", "en_route", "enroute":
		return SubStatusEnRoute
	case "arrive", "arrived":
		return SubStatusArrived
	default:
		return v
	}
}

// Terminal reports whether a status ends the intervention lifecycle.
// Polling and the rating prompt both key off this.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusClosed
}

// KnownStatus reports whether the token is part of the canonical enum.
func KnownStatus(status string) bool {
	switch status {
	case StatusPending, StatusAccepted, StatusInProgress, StatusCompleted, StatusClosed:
		return true
	}
	return false
}
