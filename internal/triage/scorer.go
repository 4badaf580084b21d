package triage

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/hazard-triage/internal/models"
)

// Flags emitted by the scorer.
const (
	FlagIncompleteInformation = "incomplete_information"
	FlagNoVisualEvidence      = "no_visual_evidence"
	FlagInsufficientDetails   = "insufficient_details"
	FlagPotentialSpam         = "potential_spam"
	FlagVagueLocation         = "vague_location"
)

const (
	baseScore = 0.5

	approveMinScore = 0.75
	rejectBelow     = 0.3

	minDetailWords    = 10
	elaborateMinWords = 21

	summaryPrefixRunes = 100
)

// SpamPhrases are matched case-insensitively against title and description.
var SpamPhrases = []string{
	"click here",
	"buy now",
	"free money",
	"limited offer",
	"promo code",
	"make money fast",
	"earn cash",
	"win a prize",
	"visit my page",
	"follow me",
	"dm for price",
	"subscribe to my",
}

// Assessment is the deterministic part of an analysis: the same report always
// yields an identical Assessment.
type Assessment struct {
	Score          float64
	Flags          []string
	Summary        string
	Recommendation string
}

// features are the report properties the rules look at, extracted once.
type features struct {
	hasTitle       bool
	hasDescription bool
	hasLocation    bool
	hasImages      bool
	words          int
	spam           bool
	preciseArea    bool
}

// rule is one weighted predicate. pass reports whether the report satisfies
// it; the matching delta is added and flag (if any) is emitted on failure.
type rule struct {
	name      string
	pass      func(f features) bool
	passDelta float64
	failDelta float64
	flag      string
}

// rules is evaluated in order; flag order follows it.
var rules = []rule{
	{
		name:      "complete",
		pass:      func(f features) bool { return f.hasTitle && f.hasDescription && f.hasLocation },
		passDelta: 0.10,
		failDelta: -0.10,
		flag:      FlagIncompleteInformation,
	},
	{
		name:      "visual_evidence",
		pass:      func(f features) bool { return f.hasImages },
		passDelta: 0.15,
		flag:      FlagNoVisualEvidence,
	},
	{
		name:      "detail",
		pass:      func(f features) bool { return f.words >= minDetailWords },
		failDelta: -0.20,
		flag:      FlagInsufficientDetails,
	},
	{
		name:      "elaborate",
		pass:      func(f features) bool { return f.words >= elaborateMinWords },
		passDelta: 0.10,
	},
	{
		name:      "spam",
		pass:      func(f features) bool { return !f.spam },
		failDelta: -0.40,
		flag:      FlagPotentialSpam,
	},
	{
		name:      "precise_location",
		pass:      func(f features) bool { return f.preciseArea },
		passDelta: 0.15,
		failDelta: -0.15,
		flag:      FlagVagueLocation,
	},
}

// Score runs the rule table against a report. Missing fields fail their
// rules; only a nil report is rejected.
func Score(r *models.Report) (Assessment, error) {
	if r == nil {
		return Assessment{}, fmt.Errorf("%w: nil report", ErrValidation)
	}

	f := extractFeatures(r)

	score := baseScore
	flags := make([]string, 0, len(rules))
	for _, rl := range rules {
		if rl.pass(f) {
			score += rl.passDelta
			continue
		}
		score += rl.failDelta
		if rl.flag != "" {
			flags = append(flags, rl.flag)
		}
	}
	score = roundScore(clamp(score, 0, 1))

	return Assessment{
		Score:          score,
		Flags:          flags,
		Summary:        summarize(r),
		Recommendation: recommend(score, flags),
	}, nil
}

func extractFeatures(r *models.Report) features {
	title := strings.TrimSpace(r.Title)
	description := strings.TrimSpace(r.Description)
	barangay := strings.TrimSpace(r.Location.Barangay)
	city := strings.TrimSpace(r.Location.City)
	hasCoords := r.Location.Latitude != 0 || r.Location.Longitude != 0

	images := 0
	for _, img := range r.Images {
		if strings.TrimSpace(img) != "" {
			images++
		}
	}

	return features{
		hasTitle:       title != "",
		hasDescription: description != "",
		hasLocation:    barangay != "" || city != "" || hasCoords,
		hasImages:      images > 0,
		words:          len(strings.Fields(description)),
		spam:           containsSpam(title) || containsSpam(description),
		preciseArea:    barangay != "" && city != "",
	}
}

func containsSpam(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range SpamPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func recommend(score float64, flags []string) string {
	if score < rejectBelow || hasFlag(flags, FlagPotentialSpam) {
		return models.RecommendReject
	}
	if score >= approveMinScore && len(flags) == 0 {
		return models.RecommendApprove
	}
	return models.RecommendPending
}

func summarize(r *models.Report) string {
	severity := strings.ToUpper(strings.TrimSpace(r.Severity))
	if severity == "" {
		severity = "UNSPECIFIED"
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = "Untitled report"
	}

	return fmt.Sprintf("%s severity report in %s: %s. %s...",
		severity, describeLocation(r.Location), title, truncateRunes(strings.TrimSpace(r.Description), summaryPrefixRunes))
}

func describeLocation(loc models.Location) string {
	parts := make([]string, 0, 2)
	if b := strings.TrimSpace(loc.Barangay); b != "" {
		parts = append(parts, b)
	}
	if c := strings.TrimSpace(loc.City); c != "" {
		parts = append(parts, c)
	}
	if len(parts) == 0 {
		return "unknown location"
	}
	return strings.Join(parts, ", ")
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
